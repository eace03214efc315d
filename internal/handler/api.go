package handler

import (
	"github.com/habitloop/internal/config"
	"github.com/habitloop/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db               *gorm.DB
	users            *service.UserService
	habits           *service.HabitService
	habitEntries     *service.HabitEntryService
	challenges       *service.ChallengeService
	participations   *service.ParticipationService
	challengeEntries *service.ChallengeEntryService
	feed             *service.FeedService
	messages         *service.MessageService
	comments         *service.CommentService
	uploadDir        string
	uploadURL        string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig) *API {
	return &API{
		db:               gdb,
		users:            service.NewUserService(gdb),
		habits:           service.NewHabitService(gdb),
		habitEntries:     service.NewHabitEntryService(gdb),
		challenges:       service.NewChallengeService(gdb),
		participations:   service.NewParticipationService(gdb, cfg.LeaveDeletesEntries),
		challengeEntries: service.NewChallengeEntryService(gdb),
		feed:             service.NewFeedService(gdb),
		messages:         service.NewMessageService(gdb),
		comments:         service.NewCommentService(gdb),
		uploadDir:        cfg.UploadDir,
		uploadURL:        cfg.UploadURLPath,
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}
