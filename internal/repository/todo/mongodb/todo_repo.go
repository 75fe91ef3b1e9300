package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/todo"
	repo "todoTracker/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

var sortKeys = map[todo.SortField]string{
	todo.SortCreatedAt: "createdAt",
	todo.SortUpdatedAt: "updatedAt",
	todo.SortTitle:     "title",
	todo.SortDueDate:   "dueDate",
	todo.SortPriority:  "priority",
	todo.SortStatus:    "status",
	todo.SortCategory:  "category",
	todo.SortCompleted: "completed",
}

type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type Storage struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// document хранит задачу в коллекции; отсутствующий dueDate пишется как null
type document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	User        string             `bson:"user"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	Category    string             `bson:"category"`
	DueDate     *time.Time         `bson:"dueDate"`
	Reminder    bool               `bson:"reminder"`
	RemindedAt  *time.Time         `bson:"remindedAt"`
	Deleted     bool               `bson:"deleted"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		logger.Error("Repository: Ошибка подключения к MongoDB", err)
		return nil, fmt.Errorf("подключение к mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	s := &Storage{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		now:        time.Now,
	}

	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("Repository: Успешное подключение к MongoDB",
		zap.String("database", cfg.Database), zap.String("collection", cfg.Collection))
	return s, nil
}

func (s *Storage) ensureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "title", Value: 1}},
			Options: options.Index().
				SetName("user_title_active").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "deleted", Value: false}}),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index().SetName("user_created"),
		},
		{
			Keys: bson.D{{Key: "dueDate", Value: 1}},
			Options: options.Index().
				SetName("pending_reminders").
				SetPartialFilterExpression(bson.D{
					{Key: "reminder", Value: true},
					{Key: "completed", Value: false},
					{Key: "deleted", Value: false},
				}),
		},
	}

	if _, err := s.collection.Indexes().CreateMany(ctx, models); err != nil {
		logger.Error("Repository: Не удалось создать индексы", err)
		return fmt.Errorf("создание индексов: %w", err)
	}
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Error("Repository: Ошибка закрытия соединения MongoDB", err)
		return err
	}
	logger.Info("Repository: Закрытие соединения MongoDB")
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, todoToCreate *todo.Todo) error {
	start := time.Now()

	// mongodb хранит время с точностью до миллисекунд
	now := s.now().UTC().Truncate(time.Millisecond)
	doc := toDocument(todoToCreate)
	doc.ID = primitive.NewObjectID()
	doc.Deleted = false
	doc.RemindedAt = nil
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	todoToCreate.ID = doc.ID.Hex()
	todoToCreate.Deleted = false
	todoToCreate.RemindedAt = nil
	todoToCreate.CreatedAt = now
	todoToCreate.UpdatedAt = now
	warnIfSlow(start, slowQuery)
	return nil
}

// Save перезаписывает все изменяемые поля документа; user и createdAt не меняются.
// Удалённый документ не обновляется, remindedAt сбрасывается только при смене срока.
func (s *Storage) Save(ctx context.Context, todoToSave *todo.Todo) error {
	start := time.Now()

	id, err := primitive.ObjectIDFromHex(todoToSave.ID)
	if err != nil {
		return repo.ErrNotFound
	}

	due := literal(todoToSave.DueDate)
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "title", Value: literal(todoToSave.Title)},
		{Key: "description", Value: literal(todoToSave.Description)},
		{Key: "completed", Value: literal(todoToSave.Completed)},
		{Key: "status", Value: literal(string(todoToSave.Status))},
		{Key: "priority", Value: literal(string(todoToSave.Priority))},
		{Key: "category", Value: literal(todoToSave.Category)},
		{Key: "remindedAt", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$dueDate", due}}},
			"$remindedAt",
			nil,
		}}}},
		{Key: "dueDate", Value: due},
		{Key: "reminder", Value: literal(todoToSave.Reminder)},
		{Key: "deleted", Value: literal(todoToSave.Deleted)},
		{Key: "updatedAt", Value: literal(s.now().UTC().Truncate(time.Millisecond))},
	}}}}

	var saved document
	err = s.collection.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "deleted", Value: false}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&saved)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repo.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление задачи: %w", err)
	}

	todoToSave.User = saved.User
	todoToSave.RemindedAt = saved.RemindedAt
	todoToSave.CreatedAt = saved.CreatedAt
	todoToSave.UpdatedAt = saved.UpdatedAt
	warnIfSlow(start, slowQuery)
	return nil
}

func (s *Storage) GetOwned(ctx context.Context, userID, id string) (*todo.Todo, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repo.ErrNotFound
	}

	return s.findOne(ctx, bson.D{
		{Key: "_id", Value: objectID},
		{Key: "user", Value: userID},
		{Key: "deleted", Value: false},
	})
}

func (s *Storage) FindByTitle(ctx context.Context, userID, title string) (*todo.Todo, error) {
	return s.findOne(ctx, bson.D{
		{Key: "user", Value: userID},
		{Key: "title", Value: title},
		{Key: "deleted", Value: false},
	})
}

func (s *Storage) List(ctx context.Context, userID string, filter todo.Filter) ([]*todo.Todo, error) {
	filter = filter.Normalize()

	key, ok := sortKeys[filter.Sort]
	if !ok {
		return nil, fmt.Errorf("неизвестное поле сортировки %q", filter.Sort)
	}

	query := bson.D{{Key: "user", Value: userID}, {Key: "deleted", Value: false}}
	if filter.Completed != nil {
		query = append(query, bson.E{Key: "completed", Value: *filter.Completed})
	}
	if filter.Status != nil {
		query = append(query, bson.E{Key: "status", Value: string(*filter.Status)})
	}

	sort := bson.D{{Key: key, Value: int(filter.Order)}}
	if key != "createdAt" {
		sort = append(sort, bson.E{Key: "createdAt", Value: 1})
	}
	sort = append(sort, bson.E{Key: "_id", Value: 1})

	return s.findMany(ctx, query, options.Find().SetSort(sort))
}

// Search ищет подстроку буквально, без учёта регистра
func (s *Storage) Search(ctx context.Context, userID, query string) ([]*todo.Todo, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}

	filter := bson.D{
		{Key: "user", Value: userID},
		{Key: "deleted", Value: false},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: pattern}},
			bson.D{{Key: "description", Value: pattern}},
		}},
	}

	sort := bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	return s.findMany(ctx, filter, options.Find().SetSort(sort))
}

func (s *Storage) Count(ctx context.Context, userID string, completed *bool) (int64, error) {
	start := time.Now()

	filter := bson.D{{Key: "user", Value: userID}, {Key: "deleted", Value: false}}
	if completed != nil {
		filter = append(filter, bson.E{Key: "completed", Value: *completed})
	}

	count, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("подсчёт задач: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return count, nil
}

func (s *Storage) DueReminders(ctx context.Context, before time.Time, limit int) ([]*todo.Todo, error) {
	filter := bson.D{
		{Key: "reminder", Value: true},
		{Key: "completed", Value: false},
		{Key: "deleted", Value: false},
		{Key: "remindedAt", Value: nil},
		{Key: "dueDate", Value: bson.D{{Key: "$ne", Value: nil}, {Key: "$lte", Value: before}}},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "dueDate", Value: 1}}).
		SetLimit(int64(limit))

	return s.findMany(ctx, filter, opts)
}

func (s *Storage) MarkReminded(ctx context.Context, id string, at time.Time) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repo.ErrNotFound
	}

	res, err := s.collection.UpdateByID(ctx, objectID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "remindedAt", Value: at},
	}}})
	if err != nil {
		logger.Error("Repository: Не удалось отметить напоминание", err)
		return fmt.Errorf("отметка напоминания: %w", err)
	}
	if res.MatchedCount == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) findOne(ctx context.Context, filter bson.D) (*todo.Todo, error) {
	start := time.Now()

	var doc document
	if err := s.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return doc.toTodo(), nil
}

func (s *Storage) findMany(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*todo.Todo, error) {
	start := time.Now()

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer cursor.Close(ctx)

	todos := []*todo.Todo{}
	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			logger.Error("Repository: Ошибка декодирования задачи", err)
			return nil, fmt.Errorf("декодирование задачи: %w", err)
		}
		todos = append(todos, doc.toTodo())
	}

	if err := cursor.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по курсору", err)
		return nil, fmt.Errorf("итерация по курсору: %w", err)
	}

	warnIfSlow(start, slowQuery+time.Millisecond*time.Duration(len(todos)))
	return todos, nil
}

func toDocument(t *todo.Todo) document {
	return document{
		User:        t.User,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Category:    t.Category,
		DueDate:     t.DueDate,
		Reminder:    t.Reminder,
		RemindedAt:  t.RemindedAt,
		Deleted:     t.Deleted,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (d document) toTodo() *todo.Todo {
	return &todo.Todo{
		ID:          d.ID.Hex(),
		User:        d.User,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		Status:      todo.Status(d.Status),
		Priority:    todo.Priority(d.Priority),
		Category:    d.Category,
		DueDate:     d.DueDate,
		Reminder:    d.Reminder,
		RemindedAt:  d.RemindedAt,
		Deleted:     d.Deleted,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// literal не даёт строкам вида "$field" стать выражением в конвейере обновления
func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

func warnIfSlow(start time.Time, threshold time.Duration) {
	if elapsed := time.Since(start); elapsed > threshold {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", elapsed))
	}
}
