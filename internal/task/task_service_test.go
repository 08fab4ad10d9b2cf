package task_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go-taskhub/internal/access"
	"go-taskhub/internal/messaging/kafka"
	"go-taskhub/internal/notification"
	"go-taskhub/internal/storage"
	"go-taskhub/internal/task"
	taskerrors "go-taskhub/internal/task/errors"
	"go-taskhub/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeTaskRepository struct {
	createFn           func(ctx context.Context, t *task.Task) error
	getByIDFn          func(ctx context.Context, id uuid.UUID) (*task.Task, error)
	listFn             func(ctx context.Context, actor access.Actor, f task.ListFilter) ([]task.Task, int64, error)
	listAssignedFn     func(ctx context.Context, actorID uuid.UUID, f task.ListFilter) ([]task.Task, int64, error)
	saveFn             func(ctx context.Context, t *task.Task) error
	replaceAssigneesFn func(ctx context.Context, t *task.Task, assignees []user.User) error
	deleteFn           func(ctx context.Context, id uuid.UUID) error
	addCommentFn       func(ctx context.Context, c *task.Comment) error
	addAttachmentFn    func(ctx context.Context, a *task.Attachment) error
	getAttachmentFn    func(ctx context.Context, taskID, attachmentID uuid.UUID) (*task.Attachment, error)
	deleteAttachmentFn func(ctx context.Context, attachmentID uuid.UUID) error

	lastTx *sql.Tx
}

func (f *fakeTaskRepository) WithTx(tx *sql.Tx) task.Repository {
	f.lastTx = tx
	return f
}

func (f *fakeTaskRepository) Create(ctx context.Context, t *task.Task) error {
	if f.createFn != nil {
		return f.createFn(ctx, t)
	}
	return nil
}

func (f *fakeTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTaskRepository) List(ctx context.Context, actor access.Actor, filter task.ListFilter) ([]task.Task, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, actor, filter)
	}
	return nil, 0, nil
}

func (f *fakeTaskRepository) ListAssigned(ctx context.Context, actorID uuid.UUID, filter task.ListFilter) ([]task.Task, int64, error) {
	if f.listAssignedFn != nil {
		return f.listAssignedFn(ctx, actorID, filter)
	}
	return nil, 0, nil
}

func (f *fakeTaskRepository) Save(ctx context.Context, t *task.Task) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, t)
	}
	return nil
}

func (f *fakeTaskRepository) ReplaceAssignees(ctx context.Context, t *task.Task, assignees []user.User) error {
	if f.replaceAssigneesFn != nil {
		return f.replaceAssigneesFn(ctx, t, assignees)
	}
	t.Assignees = assignees
	return nil
}

func (f *fakeTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeTaskRepository) AddComment(ctx context.Context, c *task.Comment) error {
	if f.addCommentFn != nil {
		return f.addCommentFn(ctx, c)
	}
	return nil
}

func (f *fakeTaskRepository) AddAttachment(ctx context.Context, a *task.Attachment) error {
	if f.addAttachmentFn != nil {
		return f.addAttachmentFn(ctx, a)
	}
	return nil
}

func (f *fakeTaskRepository) GetAttachment(ctx context.Context, taskID, attachmentID uuid.UUID) (*task.Attachment, error) {
	if f.getAttachmentFn != nil {
		return f.getAttachmentFn(ctx, taskID, attachmentID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTaskRepository) DeleteAttachment(ctx context.Context, attachmentID uuid.UUID) error {
	if f.deleteAttachmentFn != nil {
		return f.deleteAttachmentFn(ctx, attachmentID)
	}
	return nil
}

type fakeUserRepository struct {
	findActiveByIDsFn func(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]user.User, error)
}

func (f *fakeUserRepository) WithTx(tx *sql.Tx) user.Repository              { return f }
func (f *fakeUserRepository) Create(ctx context.Context, u *user.User) error { return nil }

func (f *fakeUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) FindAll(ctx context.Context) ([]user.User, error) { return nil, nil }

func (f *fakeUserRepository) FindAllByCompany(ctx context.Context, companyID string) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepository) FindActiveByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]user.User, error) {
	if f.findActiveByIDsFn != nil {
		return f.findActiveByIDsFn(ctx, companyID, ids)
	}
	// Default: every requested id is an active member.
	users := make([]user.User, len(ids))
	for i, id := range ids {
		users[i] = user.User{ID: id, CompanyID: &companyID, IsActive: true}
	}
	return users, nil
}

func (f *fakeUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (f *fakeUserRepository) Save(ctx context.Context, u *user.User) error { return nil }

type recordingNotifier struct {
	batches [][]notification.Notification
}

func (r *recordingNotifier) Fanout(ctx context.Context, batch []notification.Notification) {
	r.batches = append(r.batches, batch)
}

func (r *recordingNotifier) List(ctx context.Context, actor access.Actor, onlyUnread bool) ([]notification.NotificationResponse, error) {
	return nil, nil
}

func (r *recordingNotifier) MarkRead(ctx context.Context, actor access.Actor, id string) error {
	return nil
}

func (r *recordingNotifier) MarkAllRead(ctx context.Context, actor access.Actor) (int64, error) {
	return 0, nil
}

func (r *recordingNotifier) all() []notification.Notification {
	var out []notification.Notification
	for _, b := range r.batches {
		out = append(out, b...)
	}
	return out
}

func (r *recordingNotifier) ofType(notifType string) []notification.Notification {
	var out []notification.Notification
	for _, n := range r.all() {
		if n.Type == notifType {
			out = append(out, n)
		}
	}
	return out
}

type fakeOutboxRepository struct {
	events []kafka.OutboxEvent
	err    error
	lastTx *sql.Tx
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository {
	f.lastTx = tx
	return f
}

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type fakeBlobStore struct {
	uploadErr error
	deleteErr error
	uploaded  []string
	deleted   []string
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, r io.Reader) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploaded = append(f.uploaded, key)
	return nil
}

func (f *fakeBlobStore) Download(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	return io.NopCloser(strings.NewReader("")), 0, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

type taskServiceDeps struct {
	service  task.Service
	sqlMock  sqlmock.Sqlmock
	repo     *fakeTaskRepository
	userRepo *fakeUserRepository
	notifier *recordingNotifier
	outbox   *fakeOutboxRepository
	store    *fakeBlobStore
}

func setupTaskServiceTest(t *testing.T) *taskServiceDeps {
	t.Helper()

	db, sqlMock, _ := sqlmock.New()
	t.Cleanup(func() { db.Close() })

	repo := &fakeTaskRepository{}
	userRepo := &fakeUserRepository{}
	notifier := &recordingNotifier{}
	outbox := &fakeOutboxRepository{}
	store := &fakeBlobStore{}

	svc := task.NewService(db, repo, userRepo, notifier, outbox, store)

	return &taskServiceDeps{
		service:  svc,
		sqlMock:  sqlMock,
		repo:     repo,
		userRepo: userRepo,
		notifier: notifier,
		outbox:   outbox,
		store:    store,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	employee := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleEmployee}
	manager := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleManager}

	t.Run("employee naming another assignee is rejected", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		_, err := deps.service.Create(ctx, employee, task.CreateTaskRequest{
			Title:     "Quarterly report",
			Assignees: []string{employee.ID.String(), uuid.New().String()},
		}, nil)

		assert.ErrorIs(t, err, taskerrors.ErrSelfAssignmentOnly)
		assert.Empty(t, deps.notifier.all())
		assert.Empty(t, deps.outbox.events)
	})

	t.Run("employee task is personal and self-assigned", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, true)

		var created *task.Task
		deps.repo.createFn = func(ctx context.Context, tk *task.Task) error {
			created = tk
			return nil
		}

		resp, err := deps.service.Create(ctx, employee, task.CreateTaskRequest{Title: "Quarterly report"}, nil)

		assert.NoError(t, err)
		assert.Equal(t, access.VisibilityPersonal, created.Visibility)
		assert.Equal(t, []uuid.UUID{employee.ID}, created.AssigneeIDs())
		assert.Equal(t, task.StatusTodo, created.Status)
		assert.Equal(t, task.PriorityMedium, created.Priority)
		assert.Equal(t, "personal", resp.Visibility)
	})

	t.Run("manager task is company visible regardless of request", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, true)

		var created *task.Task
		deps.repo.createFn = func(ctx context.Context, tk *task.Task) error {
			created = tk
			return nil
		}

		_, err := deps.service.Create(ctx, manager, task.CreateTaskRequest{
			Title:     "Sprint planning",
			Assignees: []string{uuid.New().String(), uuid.New().String()},
		}, nil)

		assert.NoError(t, err)
		assert.Equal(t, access.VisibilityCompany, created.Visibility)
		assert.Equal(t, companyID, created.CompanyID)
	})

	t.Run("one assignment notification per final assignee", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, true)

		a, b, c := uuid.New(), uuid.New(), uuid.New()
		_, err := deps.service.Create(ctx, manager, task.CreateTaskRequest{
			Title:     "Sprint planning",
			Assignees: []string{a.String(), b.String(), c.String()},
		}, nil)

		assert.NoError(t, err)
		assigned := deps.notifier.ofType(notification.TypeTaskAssigned)
		assert.Len(t, assigned, 3)

		recipients := map[uuid.UUID]int{}
		for _, n := range assigned {
			recipients[n.UserID]++
			assert.Equal(t, companyID, n.CompanyID)
		}
		assert.Equal(t, map[uuid.UUID]int{a: 1, b: 1, c: 1}, recipients)
	})

	t.Run("assignee outside the tenant is rejected", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		deps.userRepo.findActiveByIDsFn = func(ctx context.Context, cid uuid.UUID, ids []uuid.UUID) ([]user.User, error) {
			return nil, nil
		}

		_, err := deps.service.Create(ctx, manager, task.CreateTaskRequest{
			Title:     "Sprint planning",
			Assignees: []string{uuid.New().String()},
		}, nil)

		assert.ErrorIs(t, err, taskerrors.ErrAssigneeNotInCompany)
	})

	t.Run("invalid status or priority", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		_, err := deps.service.Create(ctx, manager, task.CreateTaskRequest{Title: "x", Status: "archived"}, nil)
		assert.ErrorIs(t, err, taskerrors.ErrInvalidStatus)

		_, err = deps.service.Create(ctx, manager, task.CreateTaskRequest{Title: "x", Priority: "urgent"}, nil)
		assert.ErrorIs(t, err, taskerrors.ErrInvalidPriority)
	})

	t.Run("create records a lifecycle event in the same transaction", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, true)

		_, err := deps.service.Create(ctx, manager, task.CreateTaskRequest{Title: "Sprint planning"}, nil)

		assert.NoError(t, err)
		assert.Len(t, deps.outbox.events, 1)
		assert.Equal(t, "task.created", deps.outbox.events[0].EventType)
		assert.Equal(t, kafka.OutboxStatusPending, deps.outbox.events[0].Status)

		// Task row and outbox row both ride the one transaction.
		assert.NotNil(t, deps.repo.lastTx)
		assert.Equal(t, deps.repo.lastTx, deps.outbox.lastTx)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("outbox failure rolls the create back", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, false)
		deps.outbox.err = errors.New("relay table unavailable")

		_, err := deps.service.Create(ctx, manager, task.CreateTaskRequest{Title: "Sprint planning"}, nil)

		assert.Error(t, err)
		assert.Empty(t, deps.notifier.all())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func companyTask(companyID, createdBy uuid.UUID, assignees ...uuid.UUID) *task.Task {
	t := &task.Task{
		ID:         uuid.New(),
		CompanyID:  companyID,
		Title:      "Sprint planning",
		Status:     task.StatusTodo,
		Priority:   task.PriorityMedium,
		Visibility: access.VisibilityCompany,
		CreatedBy:  createdBy,
	}
	cid := companyID
	for _, a := range assignees {
		t.Assignees = append(t.Assignees, user.User{ID: a, CompanyID: &cid, IsActive: true})
	}
	return t
}

func TestTaskService_Get(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	employeeID := uuid.New()
	manager := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleManager}

	t.Run("manager cannot read an employee's personal task", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		personal := companyTask(companyID, employeeID, employeeID)
		personal.Visibility = access.VisibilityPersonal
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return personal, nil
		}

		_, err := deps.service.Get(ctx, manager, personal.ID.String())

		assert.ErrorIs(t, err, taskerrors.ErrTaskNotFound)
	})

	t.Run("cross tenant read is indistinguishable from missing", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		foreign := companyTask(uuid.New(), uuid.New())
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return foreign, nil
		}

		_, err := deps.service.Get(ctx, manager, foreign.ID.String())

		assert.ErrorIs(t, err, taskerrors.ErrTaskNotFound)
	})

	t.Run("assigned employee reads a company task", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		tk := companyTask(companyID, manager.ID, employeeID)
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		actor := access.Actor{ID: employeeID, CompanyID: companyID, Role: access.RoleEmployee}
		resp, err := deps.service.Get(ctx, actor, tk.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, tk.ID.String(), resp.ID)
	})
}

func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	manager := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleManager}

	t.Run("employee patch loses assignees and visibility but keeps the rest", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, true)

		employeeID := uuid.New()
		tk := companyTask(companyID, employeeID, employeeID)
		tk.Visibility = access.VisibilityPersonal
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		replaceCalled := false
		deps.repo.replaceAssigneesFn = func(ctx context.Context, tk *task.Task, assignees []user.User) error {
			replaceCalled = true
			return nil
		}

		actor := access.Actor{ID: employeeID, CompanyID: companyID, Role: access.RoleEmployee}
		newStatus := task.StatusInProgress
		newTitle := "Quarterly report v2"
		visibility := access.VisibilityCompany
		assignees := []string{uuid.New().String()}

		resp, err := deps.service.Update(ctx, actor, tk.ID.String(), task.UpdateTaskRequest{
			Title:      &newTitle,
			Status:     &newStatus,
			Visibility: &visibility,
			Assignees:  &assignees,
		})

		assert.NoError(t, err)
		assert.False(t, replaceCalled)
		assert.Equal(t, access.VisibilityPersonal, resp.Visibility)
		assert.Equal(t, []uuid.UUID{employeeID}, tk.AssigneeIDs())
		assert.Equal(t, task.StatusInProgress, resp.Status)
		assert.Equal(t, "Quarterly report v2", resp.Title)
	})

	t.Run("assignee set difference drives the fan-out", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, true)

		a, b, c := uuid.New(), uuid.New(), uuid.New()
		tk := companyTask(companyID, manager.ID, a, b)
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		assignees := []string{b.String(), c.String()}
		_, err := deps.service.Update(ctx, manager, tk.ID.String(), task.UpdateTaskRequest{
			Assignees: &assignees,
		})
		assert.NoError(t, err)

		updated := deps.notifier.ofType(notification.TypeTaskUpdated)
		assigned := deps.notifier.ofType(notification.TypeTaskAssigned)

		updatedTo := map[uuid.UUID]int{}
		for _, n := range updated {
			updatedTo[n.UserID]++
		}
		assignedTo := map[uuid.UUID]int{}
		for _, n := range assigned {
			assignedTo[n.UserID]++
		}

		// Post-update set {B,C} hears task-updated; only C, the newcomer,
		// also hears task-assigned; A hears nothing.
		assert.Equal(t, map[uuid.UUID]int{b: 1, c: 1}, updatedTo)
		assert.Equal(t, map[uuid.UUID]int{c: 1}, assignedTo)
		for _, n := range deps.notifier.all() {
			assert.NotEqual(t, a, n.UserID)
		}
	})

	t.Run("status can move backwards", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, true)

		tk := companyTask(companyID, manager.ID)
		tk.Status = task.StatusCompleted
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		status := task.StatusTodo
		resp, err := deps.service.Update(ctx, manager, tk.ID.String(), task.UpdateTaskRequest{Status: &status})

		assert.NoError(t, err)
		assert.Equal(t, task.StatusTodo, resp.Status)
	})

	t.Run("employee who is neither creator nor assignee cannot update", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		tk := companyTask(companyID, manager.ID, uuid.New())
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		actor := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleEmployee}
		title := "hijack"
		_, err := deps.service.Update(ctx, actor, tk.ID.String(), task.UpdateTaskRequest{Title: &title})

		assert.ErrorIs(t, err, taskerrors.ErrTaskNotFound)
	})
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	manager := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleManager}

	t.Run("blob cleanup failure does not block the delete", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, true)
		deps.store.deleteErr = errors.New("store offline")

		tk := companyTask(companyID, manager.ID)
		tk.Attachments = []task.Attachment{{ID: uuid.New(), TaskID: tk.ID, FileKey: companyID.String() + "/x-doc.pdf"}}
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		deleted := false
		deps.repo.deleteFn = func(ctx context.Context, id uuid.UUID) error {
			assert.Equal(t, tk.ID, id)
			deleted = true
			return nil
		}

		assert.NoError(t, deps.service.Delete(ctx, manager, tk.ID.String()))
		assert.True(t, deleted)
	})

	t.Run("delete removes blobs and records the event", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, true)

		key := companyID.String() + "/abc-report.pdf"
		tk := companyTask(companyID, manager.ID)
		tk.Attachments = []task.Attachment{{ID: uuid.New(), TaskID: tk.ID, FileKey: key}}
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		assert.NoError(t, deps.service.Delete(ctx, manager, tk.ID.String()))
		assert.Equal(t, []string{key}, deps.store.deleted)
		assert.Len(t, deps.outbox.events, 1)
		assert.Equal(t, "task.deleted", deps.outbox.events[0].EventType)
	})
}

func TestTaskService_AddComment(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()

	t.Run("commenter is excluded from the fan-out", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, true)

		a, b := uuid.New(), uuid.New()
		tk := companyTask(companyID, uuid.New(), a, b)
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		actor := access.Actor{ID: a, CompanyID: companyID, Role: access.RoleEmployee}
		resp, err := deps.service.AddComment(ctx, actor, tk.ID.String(), task.AddCommentRequest{Text: "done?"})

		assert.NoError(t, err)
		assert.Len(t, resp.Comments, 1)

		all := deps.notifier.all()
		assert.Len(t, all, 1)
		assert.Equal(t, b, all[0].UserID)
	})

	t.Run("outbox failure rolls the comment back", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		expectTx(t, deps.sqlMock, false)
		deps.outbox.err = errors.New("relay table unavailable")

		a := uuid.New()
		tk := companyTask(companyID, uuid.New(), a)
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		actor := access.Actor{ID: a, CompanyID: companyID, Role: access.RoleEmployee}
		_, err := deps.service.AddComment(ctx, actor, tk.ID.String(), task.AddCommentRequest{Text: "done?"})

		assert.Error(t, err)
		assert.Empty(t, deps.notifier.all())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("unassigned employee cannot comment", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		tk := companyTask(companyID, uuid.New(), uuid.New())
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		actor := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleEmployee}
		_, err := deps.service.AddComment(ctx, actor, tk.ID.String(), task.AddCommentRequest{Text: "hi"})

		assert.ErrorIs(t, err, taskerrors.ErrTaskNotFound)
	})
}

func TestTaskService_Attachments(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	manager := access.Actor{ID: uuid.New(), CompanyID: companyID, Role: access.RoleManager}

	t.Run("upload failure leaves no metadata", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		deps.store.uploadErr = errors.New("store offline")

		tk := companyTask(companyID, manager.ID)
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		metadataWritten := false
		deps.repo.addAttachmentFn = func(ctx context.Context, a *task.Attachment) error {
			metadataWritten = true
			return nil
		}

		_, err := deps.service.AddAttachment(ctx, manager, tk.ID.String(), task.Upload{
			Filename: "report.pdf",
			Reader:   strings.NewReader("x"),
		})

		assert.ErrorIs(t, err, taskerrors.ErrUploadFailed)
		assert.False(t, metadataWritten)
	})

	t.Run("delete attachment always removes metadata", func(t *testing.T) {
		deps := setupTaskServiceTest(t)
		deps.store.deleteErr = errors.New("store offline")

		tk := companyTask(companyID, manager.ID)
		att := &task.Attachment{ID: uuid.New(), TaskID: tk.ID, FileKey: companyID.String() + "/k-report.pdf", UploadedBy: manager.ID}
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}
		deps.repo.getAttachmentFn = func(ctx context.Context, taskID, attachmentID uuid.UUID) (*task.Attachment, error) {
			return att, nil
		}

		removed := false
		deps.repo.deleteAttachmentFn = func(ctx context.Context, attachmentID uuid.UUID) error {
			assert.Equal(t, att.ID, attachmentID)
			removed = true
			return nil
		}

		assert.NoError(t, deps.service.DeleteAttachment(ctx, manager, tk.ID.String(), att.ID.String()))
		assert.True(t, removed)
	})

	t.Run("upload key carries the tenant prefix", func(t *testing.T) {
		deps := setupTaskServiceTest(t)

		tk := companyTask(companyID, manager.ID)
		deps.repo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*task.Task, error) {
			return tk, nil
		}

		resp, err := deps.service.AddAttachment(ctx, manager, tk.ID.String(), task.Upload{
			Filename: "report.pdf",
			MimeType: "application/pdf",
			Size:     3,
			Reader:   strings.NewReader("abc"),
		})

		assert.NoError(t, err)
		assert.Equal(t, companyID.String(), storage.KeyCompanyPrefix(resp.FileKey))
	})
}
