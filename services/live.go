package services

import (
	"fmt"
	"os"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/go-resty/resty/v2"
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
	"github.com/rs/zerolog/log"
)

const (
	liveTokenTTL       = 2 * time.Hour
	liveRequestTimeout = 10 * time.Second
)

// LiveRoomService asks an external video provider for a room keyed by
// lesson id and a short lived join token. Without LIVE_PROVIDER_URL every
// join is rejected as unavailable.
type LiveRoomService struct {
	context.DefaultService

	catalogSvc    *CatalogService
	enrollmentSvc *EnrollmentService

	client *resty.Client
	clock  Clock
}

const LIVE_SVC = "live_svc"

func (svc LiveRoomService) Id() string {
	return LIVE_SVC
}

func (svc *LiveRoomService) Configure(ctx *context.Context) error {
	if baseURL := os.Getenv("LIVE_PROVIDER_URL"); baseURL != "" {
		svc.client = newLiveClient(baseURL, os.Getenv("LIVE_PROVIDER_API_KEY"))
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *LiveRoomService) Start() error {
	svc.catalogSvc = svc.Service(CATALOG_SVC).(*CatalogService)
	svc.enrollmentSvc = svc.Service(ENROLLMENT_SVC).(*EnrollmentService)
	if svc.client == nil {
		log.Info().Msg("Live provider not configured, live joins disabled")
	}
	return nil
}

func newLiveClient(baseURL, apiKey string) *resty.Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(liveRequestTimeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return client
}

type liveRoomRequest struct {
	RoomKey         string    `json:"room_key"`
	Title           string    `json:"title"`
	ScheduledAt     time.Time `json:"scheduled_at,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
}

type liveRoomResponse struct {
	RoomID string `json:"room_id"`
}

type liveTokenRequest struct {
	UserID     string `json:"user_id"`
	Host       bool   `json:"host"`
	TTLSeconds int    `json:"ttl_seconds"`
}

type liveTokenResponse struct {
	Token string `json:"token"`
}

// JoinLiveLesson returns join credentials for an enrolled learner or the
// course instructor, who joins as host.
func (svc *LiveRoomService) JoinLiveLesson(actor dto.Actor, lessonID string) (*dto.LiveJoinResponse, error) {
	course, lesson, err := svc.catalogSvc.GetCourseAndLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.Type != model.LessonTypeLive {
		return nil, shared.NewValidationError("lesson", "lesson is not a live session")
	}

	host := actor.CanManage(course.InstructorID)
	if !host {
		if !lesson.IsPublished || !course.IsPublished {
			return nil, shared.NewNotFoundError("Lesson")
		}
		if _, err := svc.enrollmentSvc.RequireAccess(course.ID, actor.UserID); err != nil {
			return nil, err
		}
	}

	if svc.client == nil {
		return nil, shared.NewUnavailableError("Live sessions are not available", nil)
	}

	room := liveRoomRequest{RoomKey: lesson.ID, Title: lesson.Title}
	if live := lesson.Payload().Live; live != nil {
		room.ScheduledAt = live.ScheduledAt
		room.DurationMinutes = live.DurationMinutes
	}

	var roomResp liveRoomResponse
	resp, err := svc.client.R().SetBody(room).SetResult(&roomResp).Post("/rooms")
	if err == nil && !resp.IsError() && roomResp.RoomID == "" {
		err = fmt.Errorf("empty room id")
	}
	if err := providerError("create room", resp, err); err != nil {
		log.Error().Err(err).Str("lesson_id", lesson.ID).Msg("Live provider room request failed")
		return nil, shared.NewUnavailableError("Live provider unavailable", err)
	}

	var tokenResp liveTokenResponse
	resp, err = svc.client.R().
		SetBody(liveTokenRequest{UserID: actor.UserID, Host: host, TTLSeconds: int(liveTokenTTL.Seconds())}).
		SetResult(&tokenResp).
		Post("/rooms/" + roomResp.RoomID + "/tokens")
	if err := providerError("issue token", resp, err); err != nil {
		log.Error().Err(err).Str("lesson_id", lesson.ID).Msg("Live provider token request failed")
		return nil, shared.NewUnavailableError("Live provider unavailable", err)
	}

	return &dto.LiveJoinResponse{
		LessonID:  lesson.ID,
		RoomID:    roomResp.RoomID,
		Token:     tokenResp.Token,
		ExpiresAt: svc.clock.Now().Add(liveTokenTTL),
	}, nil
}

func providerError(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: provider returned %d", op, resp.StatusCode())
	}
	return nil
}
