package pipeline

import (
	"sync"
	"time"

	"github.com/perryops/periaudit/internal/actions"
	"github.com/perryops/periaudit/internal/compliance"
	"github.com/perryops/periaudit/internal/report"
)

// SessionStatus represents the state of one audit session.
type SessionStatus string

const (
	StatusQueued      SessionStatus = "queued"
	StatusParsing     SessionStatus = "parsing"
	StatusStructuring SessionStatus = "structuring"
	StatusAuditing    SessionStatus = "auditing"
	StatusGenerating  SessionStatus = "generating"
	StatusCompleted   SessionStatus = "completed"
	StatusPartial     SessionStatus = "partial"
	StatusFailed      SessionStatus = "failed"
)

// Result is the produced output of a completed session: the patient
// action plan plus the compliance report.
type Result struct {
	PatientInfo      report.PatientInfo    `json:"patient_info"`
	SurgeryDetails   report.SurgeryDetails `json:"surgery_details"`
	Actions          []actions.ActionItem  `json:"actions"`
	ComplianceReport *compliance.Report    `json:"compliance_report,omitempty"`
	SectionCount     int                   `json:"guideline_sections"`
}

// Session tracks the state of a single audit run: one guideline document
// audited against one structured-report snapshot.
type Session struct {
	mu sync.Mutex

	ID string `json:"session_id"`

	Status SessionStatus `json:"status"`
	Phase  string        `json:"phase"`

	GuidelineFilename string `json:"guideline_filename"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal, not serialized.
	guidelineData []byte
	structured    *report.Structured
	reportText    string
	result        *Result
	errors        []string
}

// SetStatus updates session status atomically.
func (s *Session) SetStatus(status SessionStatus, phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
	s.Phase = phase
	s.UpdatedAt = time.Now()
}

// AddError records a diagnostic.
func (s *Session) AddError(err string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
	s.UpdatedAt = time.Now()
}

// SetInput sets the raw guideline bytes and the report input. Exactly
// one of structured or reportText feeds the run; when structured is nil
// the worker structures reportText first.
func (s *Session) SetInput(guidelineData []byte, structured *report.Structured, reportText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guidelineData = guidelineData
	s.structured = structured
	s.reportText = reportText
}

// SetResult stores the produced output.
func (s *Session) SetResult(r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = r
	s.UpdatedAt = time.Now()
}

// Result returns the produced output, nil until the session finishes.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// LastUpdated returns the update timestamp under the session mutex, so
// the store janitor never races a worker writing it.
func (s *Session) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID                string        `json:"session_id"`
	Status            SessionStatus `json:"status"`
	Phase             string        `json:"phase"`
	GuidelineFilename string        `json:"guideline_filename"`
	Errors            []string      `json:"errors"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := s.errors
	if errs == nil {
		errs = []string{}
	}
	return Snapshot{
		ID:                s.ID,
		Status:            s.Status,
		Phase:             s.Phase,
		GuidelineFilename: s.GuidelineFilename,
		Errors:            errs,
	}
}

// SessionStore is a thread-safe in-memory session registry with TTL
// eviction.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (st *SessionStore) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *SessionStore) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[id]
}

// Cleanup removes expired sessions.
func (st *SessionStore) Cleanup() {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	for id, s := range st.sessions {
		if now.Sub(s.LastUpdated()) > st.ttl {
			delete(st.sessions, id)
		}
	}
}
