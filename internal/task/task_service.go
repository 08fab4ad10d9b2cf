package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go-taskhub/internal/access"
	"go-taskhub/internal/events"
	"go-taskhub/internal/messaging/kafka"
	"go-taskhub/internal/notification"
	"go-taskhub/internal/shared/apperror"
	"go-taskhub/internal/shared/contextutil"
	"go-taskhub/internal/shared/response"
	"go-taskhub/internal/storage"
	taskerrors "go-taskhub/internal/task/errors"
	"go-taskhub/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Upload carries one multipart file from the handler into the service.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Reader   io.Reader
}

type Service interface {
	Create(ctx context.Context, actor access.Actor, req CreateTaskRequest, files []Upload) (TaskResponse, error)
	Get(ctx context.Context, actor access.Actor, id string) (TaskResponse, error)
	List(ctx context.Context, actor access.Actor, q ListTasksQuery) ([]TaskResponse, *response.PaginationMeta, error)
	MyTasks(ctx context.Context, actor access.Actor, q ListTasksQuery) ([]TaskResponse, *response.PaginationMeta, error)
	Update(ctx context.Context, actor access.Actor, id string, req UpdateTaskRequest) (TaskResponse, error)
	Delete(ctx context.Context, actor access.Actor, id string) error
	AddComment(ctx context.Context, actor access.Actor, id string, req AddCommentRequest) (TaskResponse, error)
	AddAttachment(ctx context.Context, actor access.Actor, id string, file Upload) (AttachmentResponse, error)
	DeleteAttachment(ctx context.Context, actor access.Actor, id, attachmentID string) error
}

type service struct {
	db            *sql.DB
	repo          Repository
	userRepo      user.Repository
	notifications notification.Service
	outbox        kafka.OutboxRepository
	store         storage.BlobStore
	logger        *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	userRepo user.Repository,
	notifications notification.Service,
	outbox kafka.OutboxRepository,
	store storage.BlobStore,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("task.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("task.service")
	}
	return &service{
		db:            db,
		repo:          repo,
		userRepo:      userRepo,
		notifications: notifications,
		outbox:        outbox,
		store:         store,
		logger:        l,
	}
}

func (s *service) Create(ctx context.Context, actor access.Actor, req CreateTaskRequest, files []Upload) (TaskResponse, error) {
	if actor.IsSuperadmin() {
		// Tasks always belong to a tenant; superadmin accounts have none.
		return TaskResponse{}, apperror.ErrForbidden
	}

	status := StatusTodo
	if req.Status != "" {
		if !ValidStatus(req.Status) {
			return TaskResponse{}, taskerrors.ErrInvalidStatus
		}
		status = req.Status
	}

	priority := PriorityMedium
	if req.Priority != "" {
		if !ValidPriority(req.Priority) {
			return TaskResponse{}, taskerrors.ErrInvalidPriority
		}
		priority = req.Priority
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return TaskResponse{}, err
	}

	assigneeIDs, err := parseUUIDs(req.Assignees)
	if err != nil {
		return TaskResponse{}, apperror.InvalidField("assignees")
	}

	if actor.Role == access.RoleEmployee {
		if !access.SelfAssignmentOnly(actor.ID, assigneeIDs) {
			return TaskResponse{}, taskerrors.ErrSelfAssignmentOnly
		}
		assigneeIDs = []uuid.UUID{actor.ID}
	}

	assignees, err := s.resolveAssignees(ctx, actor.CompanyID, assigneeIDs)
	if err != nil {
		return TaskResponse{}, err
	}

	t := &Task{
		ID:          uuid.New(),
		CompanyID:   actor.CompanyID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    priority,
		Visibility:  access.VisibilityFor(actor.Role),
		DueDate:     dueDate,
		CreatedBy:   actor.ID,
		Assignees:   assignees,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create task begin tx failed", zap.Error(err))
		return TaskResponse{}, err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, t); err != nil {
		s.logger.Error("task persist failed", zap.Error(err))
		return TaskResponse{}, err
	}

	if err := s.recordLifecycleEvent(ctx, s.outbox.WithTx(tx), t, actor.ID, events.TaskCreated); err != nil {
		return TaskResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create task commit failed", zap.Error(err))
		return TaskResponse{}, err
	}

	for _, f := range files {
		if _, err := s.attachBlob(ctx, t, actor.ID, f); err != nil {
			s.logger.Warn("attachment upload during create failed",
				zap.String("task_id", t.ID.String()),
				zap.String("filename", f.Filename),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("task created",
		zap.String("task_id", t.ID.String()),
		zap.String("company_id", t.CompanyID.String()),
		zap.Int("assignees", len(assignees)),
	)

	s.notifyAssignees(ctx, t, t.AssigneeIDs(), notification.TypeTaskAssigned,
		fmt.Sprintf("You have been assigned to task: %s", t.Title))

	return MapToResponse(*t), nil
}

func (s *service) Get(ctx context.Context, actor access.Actor, id string) (TaskResponse, error) {
	t, err := s.authorize(ctx, actor, id, access.OpRead)
	if err != nil {
		return TaskResponse{}, err
	}
	return MapToResponse(*t), nil
}

func (s *service) List(ctx context.Context, actor access.Actor, q ListTasksQuery) ([]TaskResponse, *response.PaginationMeta, error) {
	f := filterFromQuery(q)
	f.normalize()

	tasks, total, err := s.repo.List(ctx, actor, f)
	if err != nil {
		return nil, nil, err
	}

	meta := response.NewPaginationMeta(total, f.Page, f.Limit)
	return MapToListResponse(tasks), &meta, nil
}

func (s *service) MyTasks(ctx context.Context, actor access.Actor, q ListTasksQuery) ([]TaskResponse, *response.PaginationMeta, error) {
	f := filterFromQuery(q)
	f.normalize()

	tasks, total, err := s.repo.ListAssigned(ctx, actor.ID, f)
	if err != nil {
		return nil, nil, err
	}

	meta := response.NewPaginationMeta(total, f.Page, f.Limit)
	return MapToListResponse(tasks), &meta, nil
}

func (s *service) Update(ctx context.Context, actor access.Actor, id string, req UpdateTaskRequest) (TaskResponse, error) {
	t, err := s.authorize(ctx, actor, id, access.OpUpdate)
	if err != nil {
		return TaskResponse{}, err
	}

	// Employees keep their editing rights but never steer ownership or
	// audience: these fields are dropped from the patch, not rejected.
	if actor.Role == access.RoleEmployee {
		req.Assignees = nil
		req.Visibility = nil
	}

	if req.Title != nil {
		if *req.Title == "" {
			return TaskResponse{}, apperror.RequiredField("title")
		}
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		if !ValidStatus(*req.Status) {
			return TaskResponse{}, taskerrors.ErrInvalidStatus
		}
		t.Status = *req.Status
	}
	if req.Priority != nil {
		if !ValidPriority(*req.Priority) {
			return TaskResponse{}, taskerrors.ErrInvalidPriority
		}
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		due, err := parseDueDate(req.DueDate)
		if err != nil {
			return TaskResponse{}, err
		}
		t.DueDate = due
	}
	if req.Visibility != nil {
		switch *req.Visibility {
		case access.VisibilityCompany, access.VisibilityPersonal:
			t.Visibility = *req.Visibility
		default:
			return TaskResponse{}, apperror.InvalidField("visibility")
		}
	}

	previous := map[uuid.UUID]struct{}{}
	for _, aid := range t.AssigneeIDs() {
		previous[aid] = struct{}{}
	}

	var newAssignees []user.User
	if req.Assignees != nil {
		assigneeIDs, err := parseUUIDs(*req.Assignees)
		if err != nil {
			return TaskResponse{}, apperror.InvalidField("assignees")
		}
		newAssignees, err = s.resolveAssignees(ctx, t.CompanyID, assigneeIDs)
		if err != nil {
			return TaskResponse{}, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update task begin tx failed", zap.Error(err))
		return TaskResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if req.Assignees != nil {
		if err := qtx.ReplaceAssignees(ctx, t, newAssignees); err != nil {
			return TaskResponse{}, err
		}
		t.Assignees = newAssignees
	}

	if err := qtx.Save(ctx, t); err != nil {
		s.logger.Error("task update failed", zap.String("task_id", t.ID.String()), zap.Error(err))
		return TaskResponse{}, err
	}

	if err := s.recordLifecycleEvent(ctx, s.outbox.WithTx(tx), t, actor.ID, events.TaskUpdated); err != nil {
		return TaskResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update task commit failed", zap.Error(err))
		return TaskResponse{}, err
	}

	// Everyone on the task after the update hears about it; freshly
	// added assignees additionally get an assignment notice. Removed
	// assignees hear nothing.
	var added []uuid.UUID
	for _, aid := range t.AssigneeIDs() {
		if _, ok := previous[aid]; !ok {
			added = append(added, aid)
		}
	}
	s.notifyAssignees(ctx, t, t.AssigneeIDs(), notification.TypeTaskUpdated,
		fmt.Sprintf("Task updated: %s", t.Title))
	s.notifyAssignees(ctx, t, added, notification.TypeTaskAssigned,
		fmt.Sprintf("You have been assigned to task: %s", t.Title))

	return MapToResponse(*t), nil
}

func (s *service) Delete(ctx context.Context, actor access.Actor, id string) error {
	t, err := s.authorize(ctx, actor, id, access.OpDelete)
	if err != nil {
		return err
	}

	// Blob cleanup is best-effort: a dead blob store must not make the
	// task row undeletable. Orphaned blobs are the accepted cost.
	for _, a := range t.Attachments {
		if err := s.store.Delete(ctx, a.FileKey); err != nil {
			s.logger.Warn("attachment blob cleanup failed",
				zap.String("task_id", t.ID.String()),
				zap.String("file_key", a.FileKey),
				zap.Error(err),
			)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete task begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Delete(ctx, t.ID); err != nil {
		return err
	}

	if err := s.recordLifecycleEvent(ctx, s.outbox.WithTx(tx), t, actor.ID, events.TaskDeleted); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete task commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("task deleted",
		zap.String("task_id", t.ID.String()),
		zap.String("deleted_by", actor.ID.String()),
	)

	return nil
}

func (s *service) AddComment(ctx context.Context, actor access.Actor, id string, req AddCommentRequest) (TaskResponse, error) {
	t, err := s.authorize(ctx, actor, id, access.OpComment)
	if err != nil {
		return TaskResponse{}, err
	}

	c := &Comment{
		ID:        uuid.New(),
		TaskID:    t.ID,
		UserID:    actor.ID,
		Text:      req.Text,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("add comment begin tx failed", zap.Error(err))
		return TaskResponse{}, err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).AddComment(ctx, c); err != nil {
		return TaskResponse{}, err
	}

	if err := s.recordCommentEvent(ctx, s.outbox.WithTx(tx), t, c); err != nil {
		return TaskResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("add comment commit failed", zap.Error(err))
		return TaskResponse{}, err
	}

	t.Comments = append(t.Comments, *c)

	// The commenter already knows.
	var recipients []uuid.UUID
	for _, aid := range t.AssigneeIDs() {
		if aid != actor.ID {
			recipients = append(recipients, aid)
		}
	}
	s.notifyAssignees(ctx, t, recipients, notification.TypeTaskUpdated,
		fmt.Sprintf("New comment on task: %s", t.Title))

	return MapToResponse(*t), nil
}

func (s *service) AddAttachment(ctx context.Context, actor access.Actor, id string, file Upload) (AttachmentResponse, error) {
	t, err := s.authorize(ctx, actor, id, access.OpUpdate)
	if err != nil {
		return AttachmentResponse{}, err
	}

	a, err := s.attachBlob(ctx, t, actor.ID, file)
	if err != nil {
		return AttachmentResponse{}, err
	}

	return MapAttachmentToResponse(*a), nil
}

func (s *service) DeleteAttachment(ctx context.Context, actor access.Actor, id, attachmentID string) error {
	t, err := s.authorize(ctx, actor, id, access.OpUpdate)
	if err != nil {
		return err
	}

	aid, err := uuid.Parse(attachmentID)
	if err != nil {
		return taskerrors.ErrAttachmentNotFound
	}

	a, err := s.repo.GetAttachment(ctx, t.ID, aid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return taskerrors.ErrAttachmentNotFound
		}
		return err
	}

	if actor.Role == access.RoleEmployee && a.UploadedBy != actor.ID {
		return apperror.ErrForbidden
	}

	// Saga: the blob delete may fail, the metadata row always goes.
	if err := s.store.Delete(ctx, a.FileKey); err != nil {
		s.logger.Warn("attachment blob delete failed, removing metadata anyway",
			zap.String("task_id", t.ID.String()),
			zap.String("file_key", a.FileKey),
			zap.Error(err),
		)
	}

	return s.repo.DeleteAttachment(ctx, a.ID)
}

// authorize fetches a task and runs the decision table. Absent tasks and
// denied tasks produce the same NOT_FOUND so lookups never reveal what
// exists in another scope.
func (s *service) authorize(ctx context.Context, actor access.Actor, id string, op access.Operation) (*Task, error) {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return nil, taskerrors.ErrInvalidTaskID
	}

	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, taskerrors.ErrTaskNotFound
		}
		return nil, err
	}

	if d := access.CanAccessTask(actor, op, t.Ref()); !d.Allowed {
		s.logger.Debug("task access denied",
			zap.String("task_id", t.ID.String()),
			zap.String("actor_id", actor.ID.String()),
			zap.String("op", string(op)),
			zap.String("reason", d.Reason),
		)
		return nil, taskerrors.ErrTaskNotFound
	}

	return t, nil
}

func (s *service) resolveAssignees(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	found, err := s.userRepo.FindActiveByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(dedupe(ids)) {
		return nil, taskerrors.ErrAssigneeNotInCompany
	}
	return found, nil
}

func (s *service) attachBlob(ctx context.Context, t *Task, uploadedBy uuid.UUID, file Upload) (*Attachment, error) {
	key := storage.NewObjectKey(t.CompanyID, file.Filename)

	if err := s.store.Upload(ctx, key, file.Reader); err != nil {
		s.logger.Error("blob upload failed",
			zap.String("task_id", t.ID.String()),
			zap.String("filename", file.Filename),
			zap.Error(err),
		)
		return nil, taskerrors.ErrUploadFailed
	}

	a := &Attachment{
		ID:           uuid.New(),
		TaskID:       t.ID,
		FileKey:      key,
		OriginalName: file.Filename,
		MimeType:     file.MimeType,
		Size:         file.Size,
		UploadedBy:   uploadedBy,
	}
	if err := s.repo.AddAttachment(ctx, a); err != nil {
		// Metadata insert failed after a successful upload. Remove the
		// blob so nothing unreferenced survives.
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logger.Warn("orphaned blob cleanup failed", zap.String("file_key", key), zap.Error(derr))
		}
		return nil, err
	}
	t.Attachments = append(t.Attachments, *a)
	return a, nil
}

// notifyAssignees runs after the mutation is committed; failures are
// logged inside the notification service and never fail the request.
func (s *service) notifyAssignees(ctx context.Context, t *Task, recipients []uuid.UUID, notifType, message string) {
	if len(recipients) == 0 {
		return
	}

	entityID := t.ID
	batch := make([]notification.Notification, 0, len(recipients))
	for _, uid := range recipients {
		batch = append(batch, notification.Notification{
			ID:         uuid.New(),
			UserID:     uid,
			CompanyID:  t.CompanyID,
			Type:       notifType,
			Message:    message,
			EntityType: "task",
			EntityID:   &entityID,
		})
	}
	s.notifications.Fanout(ctx, batch)
}

func (s *service) recordLifecycleEvent(ctx context.Context, outbox kafka.OutboxRepository, t *Task, actorID uuid.UUID, eventType string) error {
	assigneeIDs := make([]string, 0, len(t.Assignees))
	for _, aid := range t.AssigneeIDs() {
		assigneeIDs = append(assigneeIDs, aid.String())
	}

	payload, err := json.Marshal(events.TaskLifecycleEvent{
		EventType:   eventType,
		TaskID:      t.ID.String(),
		CompanyID:   t.CompanyID.String(),
		ActorID:     actorID.String(),
		Title:       t.Title,
		Status:      t.Status,
		AssigneeIDs: assigneeIDs,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("lifecycle event marshal failed", zap.Error(err))
		return err
	}

	return s.createOutboxEvent(ctx, outbox, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "task",
		AggregateID:   t.ID.String(),
		EventType:     eventType,
		Topic:         events.TaskLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) recordCommentEvent(ctx context.Context, outbox kafka.OutboxRepository, t *Task, c *Comment) error {
	payload, err := json.Marshal(events.TaskCommentEvent{
		EventType:  events.TaskCommentAdded,
		TaskID:     t.ID.String(),
		CommentID:  c.ID.String(),
		CompanyID:  t.CompanyID.String(),
		AuthorID:   c.UserID.String(),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("comment event marshal failed", zap.Error(err))
		return err
	}

	return s.createOutboxEvent(ctx, outbox, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "task",
		AggregateID:   t.ID.String(),
		EventType:     events.TaskCommentAdded,
		Topic:         events.TaskCommentTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

// createOutboxEvent records the event for the relay worker inside the
// caller's transaction: the mutation and its event commit together or
// not at all.
func (s *service) createOutboxEvent(ctx context.Context, outbox kafka.OutboxRepository, event kafka.OutboxEvent) error {
	if err := kafka.ValidateOutboxEvent(event); err != nil {
		s.logger.Error("invalid outbox event", zap.Error(err))
		return err
	}
	if err := outbox.Create(ctx, event); err != nil {
		s.logger.Error("outbox write failed",
			zap.String("event_type", event.EventType),
			zap.String("aggregate_id", event.AggregateID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func filterFromQuery(q ListTasksQuery) ListFilter {
	return ListFilter{
		Status:    q.Status,
		Priority:  q.Priority,
		Search:    q.Search,
		Page:      q.Page,
		Limit:     q.Limit,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if due, err := time.Parse(layout, *raw); err == nil {
			return &due, nil
		}
	}
	return nil, apperror.InvalidField("dueDate")
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
