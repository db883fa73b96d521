package model

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// CompletionThreshold is the watch percentage at which a lesson counts as
// completed.
const CompletionThreshold = 90

type InteractionType string

const (
	InteractionPlay     InteractionType = "play"
	InteractionPause    InteractionType = "pause"
	InteractionSeek     InteractionType = "seek"
	InteractionComplete InteractionType = "complete"
	InteractionResume   InteractionType = "resume"
)

// Progress is one learner's record for one lesson of an enrollment.
// Sessions and Interactions are append only.
type Progress struct {
	ID           string `json:"id" gorm:"primaryKey"`
	EnrollmentID string `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson_learner"`
	LessonID     string `json:"lesson_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson_learner;index"`
	LearnerID    string `json:"learner_id" gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson_learner"`

	WatchTimeSeconds     int        `json:"watch_time_seconds" gorm:"not null;default:0"`
	LastWatchedPosition  int        `json:"last_watched_position" gorm:"not null;default:0"`
	CompletionPercentage int        `json:"completion_percentage" gorm:"not null;default:0"`
	Completed            bool       `json:"completed" gorm:"not null;default:false;index"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`

	Sessions     datatypes.JSONSlice[WatchSession]     `json:"sessions"`
	Interactions datatypes.JSONSlice[InteractionEvent] `json:"interactions"`
	Quiz         datatypes.JSONType[QuizState]         `json:"quiz"`
	Assignment   datatypes.JSONType[AssignmentState]   `json:"assignment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Progress) TableName() string {
	return "lesson_progress"
}

type WatchSession struct {
	StartTime       time.Time  `json:"start_time"`
	StartPosition   int        `json:"start_position"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	EndPosition     *int       `json:"end_position,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	Abandoned       bool       `json:"abandoned,omitempty"`
}

func (s WatchSession) Open() bool {
	return s.EndTime == nil
}

type InteractionEvent struct {
	Type       InteractionType `json:"type"`
	Timestamp  int             `json:"timestamp"` // playback position in seconds
	OccurredAt time.Time       `json:"occurred_at"`
}

type QuizState struct {
	Attempted bool          `json:"attempted"`
	Attempts  []QuizAttempt `json:"attempts"`
	BestScore int           `json:"best_score"`
	Passed    bool          `json:"passed"`
}

type QuizAttempt struct {
	Score       int       `json:"score"`
	Answers     []int     `json:"answers"`
	Correct     []bool    `json:"correct"`
	AttemptedAt time.Time `json:"attempted_at"`
}

type AssignmentState struct {
	Submitted   bool             `json:"submitted"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
	URL         string           `json:"url,omitempty"`
	Text        string           `json:"text,omitempty"`
	Grade       *AssignmentGrade `json:"grade,omitempty"`
}

type AssignmentGrade struct {
	Score    int       `json:"score"`
	Feedback string    `json:"feedback,omitempty"`
	GradedAt time.Time `json:"graded_at"`
	GradedBy string    `json:"graded_by"`
}

// CompletionPercentage is min(round(watched/duration*100), 100). A lesson
// without a duration cannot be completed by watching.
func CompletionPercentage(watchedSeconds, durationSeconds int) int {
	if durationSeconds <= 0 {
		return 0
	}
	pct := int(math.Round(float64(watchedSeconds) / float64(durationSeconds) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

func (p *Progress) log(t InteractionType, position int, now time.Time) {
	p.Interactions = append(p.Interactions, InteractionEvent{Type: t, Timestamp: position, OccurredAt: now})
}

// OpenSession returns the index of the most recent open session, or -1.
func (p *Progress) OpenSession() int {
	for i := len(p.Sessions) - 1; i >= 0; i-- {
		if p.Sessions[i].Open() {
			return i
		}
	}
	return -1
}

// AbandonOpenSessions closes every open session without crediting watch
// time. Returns the number closed.
func (p *Progress) AbandonOpenSessions(now time.Time) int {
	closed := 0
	for i := range p.Sessions {
		if !p.Sessions[i].Open() {
			continue
		}
		end := now
		pos := p.Sessions[i].StartPosition
		zero := 0
		p.Sessions[i].EndTime = &end
		p.Sessions[i].EndPosition = &pos
		p.Sessions[i].DurationSeconds = &zero
		p.Sessions[i].Abandoned = true
		closed++
	}
	return closed
}

// StartSession opens a new session at position. The first session logs
// play, later ones resume.
func (p *Progress) StartSession(position int, now time.Time) {
	interaction := InteractionPlay
	if len(p.Sessions) > 0 {
		interaction = InteractionResume
	}
	p.Sessions = append(p.Sessions, WatchSession{StartTime: now, StartPosition: position})
	p.LastWatchedPosition = position
	p.log(interaction, position, now)
}

// EndSession closes the most recent open session and credits its wall
// clock duration. Returns false, changing nothing, when no session is open.
func (p *Progress) EndSession(position int, now time.Time, lessonDurationSeconds int) bool {
	idx := p.OpenSession()
	if idx < 0 {
		return false
	}

	session := &p.Sessions[idx]
	duration := int(math.Round(now.Sub(session.StartTime).Seconds()))
	if duration < 0 {
		duration = 0
	}
	end := now
	pos := position
	session.EndTime = &end
	session.EndPosition = &pos
	session.DurationSeconds = &duration

	p.WatchTimeSeconds += duration
	p.LastWatchedPosition = position
	p.log(InteractionPause, position, now)

	p.Recompute(lessonDurationSeconds, now)
	return true
}

// Heartbeat records the player position without affecting watch time.
func (p *Progress) Heartbeat(position int) {
	p.LastWatchedPosition = position
}

func (p *Progress) Seek(from, to int, now time.Time) {
	p.LastWatchedPosition = to
	p.log(InteractionSeek, from, now)
}

// MarkComplete forces completion. Calling it on a completed record is a no-op.
func (p *Progress) MarkComplete(now time.Time) {
	if p.Completed {
		return
	}
	p.Completed = true
	p.CompletionPercentage = 100
	p.CompletedAt = &now
	p.log(InteractionComplete, p.LastWatchedPosition, now)
}

// Recompute derives CompletionPercentage from watch time and completes the
// record at the threshold. A record pinned to 100 by MarkComplete stays there.
func (p *Progress) Recompute(lessonDurationSeconds int, now time.Time) {
	pct := CompletionPercentage(p.WatchTimeSeconds, lessonDurationSeconds)
	if p.Completed && pct < p.CompletionPercentage {
		pct = p.CompletionPercentage
	}
	p.CompletionPercentage = pct

	if !p.Completed && pct >= CompletionThreshold {
		p.Completed = true
		p.CompletedAt = &now
		p.log(InteractionComplete, p.LastWatchedPosition, now)
	}
}

func (p *Progress) QuizState() QuizState {
	return p.Quiz.Data()
}

func (p *Progress) AssignmentState() AssignmentState {
	return p.Assignment.Data()
}

// RecordQuizAttempt appends a graded attempt and updates best score and pass state.
func (p *Progress) RecordQuizAttempt(attempt QuizAttempt, passingScore int) QuizState {
	state := p.QuizState()
	state.Attempted = true
	state.Attempts = append(state.Attempts, attempt)
	if attempt.Score > state.BestScore {
		state.BestScore = attempt.Score
	}
	state.Passed = state.BestScore >= passingScore
	p.Quiz = datatypes.NewJSONType(state)
	return state
}

func (p *Progress) SetAssignment(state AssignmentState) {
	p.Assignment = datatypes.NewJSONType(state)
}
