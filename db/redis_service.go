package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"schoolmanager-server-go/division"
	"schoolmanager-server-go/models"
)

const (
	pupilsKey       = "pupils"        // List: pupil IDs in state order
	classesKey      = "classes"       // List: class IDs in state order
	pupilInfoPrefix = "pupil:"        // Hash prefix: pupil:{id} -> pupil details
	classInfoPrefix = "class:"        // Hash prefix: class:{id} -> class details
	versionKey      = "state:version" // String: bumped by every write, watched by every read-modify-write
)

// ErrStateConflict is returned when concurrent writers kept invalidating a
// transaction until the retry budget ran out.
var ErrStateConflict = errors.New("state changed concurrently, retries exhausted")

// RedisService stores the pupil/class state snapshot in Redis.
type RedisService struct {
	Client     *redis.Client
	MaxRetries int
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, maxRetries int) *RedisService {
	if maxRetries <= 0 {
		maxRetries = 1
	}

	return &RedisService{
		Client:     client,
		MaxRetries: maxRetries,
	}
}

// Helper to generate pupil info key
func getPupilInfoKey(pupilID int) string {
	return pupilInfoPrefix + strconv.Itoa(pupilID)
}

// Helper to generate class info key
func getClassInfoKey(classID int) string {
	return classInfoPrefix + strconv.Itoa(classID)
}

// --- Reads ---

// GetState loads the current snapshot.
func (s *RedisService) GetState(ctx context.Context) (models.State, error) {
	return loadState(ctx, s.Client)
}

// HasState reports whether any classes have been stored.
func (s *RedisService) HasState(ctx context.Context) (bool, error) {
	n, err := s.Client.Exists(ctx, classesKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check state existence: %w", err)
	}

	return n > 0, nil
}

// GetAllClasses returns all classes in state order.
func (s *RedisService) GetAllClasses(ctx context.Context) ([]models.Class, error) {
	state, err := loadState(ctx, s.Client)
	if err != nil {
		return nil, fmt.Errorf("failed to get all classes: %w", err)
	}

	return state.Classes, nil
}

// GetClassByID retrieves a single class. It returns nil, nil when the class does not exist.
func (s *RedisService) GetClassByID(ctx context.Context, classID int) (*models.Class, error) {
	data, err := s.Client.HGetAll(ctx, getClassInfoKey(classID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get class %d: %w", classID, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	class, err := classFromHash(data)
	if err != nil {
		return nil, fmt.Errorf("class %d: %w", classID, err)
	}

	return &class, nil
}

// GetPupilsByClassID returns the pupils of a class ordered by follow-up number.
// An unknown class yields an empty list.
func (s *RedisService) GetPupilsByClassID(ctx context.Context, classID int) ([]models.Pupil, error) {
	state, err := loadState(ctx, s.Client)
	if err != nil {
		return nil, fmt.Errorf("failed to get pupils for class %d: %w", classID, err)
	}

	class, ok := state.ClassByID(classID)
	if !ok {
		return []models.Pupil{}, nil
	}

	return state.PupilsInClass(class.ClassName), nil
}

func loadState(ctx context.Context, rdb redis.Cmdable) (models.State, error) {
	pupilIDs, err := rdb.LRange(ctx, pupilsKey, 0, -1).Result()
	if err != nil {
		return models.State{}, fmt.Errorf("failed to get pupil IDs from Redis: %w", err)
	}
	classIDs, err := rdb.LRange(ctx, classesKey, 0, -1).Result()
	if err != nil {
		return models.State{}, fmt.Errorf("failed to get class IDs from Redis: %w", err)
	}

	pupilCmds := make([]*redis.StringStringMapCmd, 0, len(pupilIDs))
	classCmds := make([]*redis.StringStringMapCmd, 0, len(classIDs))
	if len(pupilIDs)+len(classIDs) > 0 {
		_, err = rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, id := range pupilIDs {
				pupilCmds = append(pupilCmds, pipe.HGetAll(ctx, pupilInfoPrefix+id))
			}
			for _, id := range classIDs {
				classCmds = append(classCmds, pipe.HGetAll(ctx, classInfoPrefix+id))
			}

			return nil
		})
		if err != nil {
			return models.State{}, fmt.Errorf("failed to get state details from Redis: %w", err)
		}
	}

	state := models.State{
		Pupils:  make([]models.Pupil, 0, len(pupilIDs)),
		Classes: make([]models.Class, 0, len(classIDs)),
	}
	for i, cmd := range pupilCmds {
		p, err := pupilFromHash(cmd.Val())
		if err != nil {
			return models.State{}, fmt.Errorf("pupil %s: %w", pupilIDs[i], err)
		}
		state.Pupils = append(state.Pupils, p)
	}
	for i, cmd := range classCmds {
		c, err := classFromHash(cmd.Val())
		if err != nil {
			return models.State{}, fmt.Errorf("class %s: %w", classIDs[i], err)
		}
		state.Classes = append(state.Classes, c)
	}

	return state, nil
}

// --- Writes ---

type writeFunc func(pipe redis.Pipeliner)

// update runs a read-modify-write cycle under WATCH on the version key. fn
// receives the current state and returns the writes to queue; errors from fn
// abort without retrying.
func (s *RedisService) update(ctx context.Context, fn func(current models.State) (writeFunc, error)) error {
	for attempt := 1; attempt <= s.MaxRetries; attempt++ {
		err := s.Client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := loadState(ctx, tx)
			if err != nil {
				return err
			}

			write, err := fn(current)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if write != nil {
					write(pipe)
				}
				pipe.Incr(ctx, versionKey)

				return nil
			})

			return err
		}, versionKey)

		if errors.Is(err, redis.TxFailedErr) {
			log.Warn().Int("attempt", attempt).Msg("state changed during transaction, retrying")
			continue
		}

		return err
	}

	return ErrStateConflict
}

// ApplyAssignments processes request against the stored state and persists
// only the pupils and classes that changed.
func (s *RedisService) ApplyAssignments(ctx context.Context, request models.Request) (division.Result, error) {
	var result division.Result

	err := s.update(ctx, func(current models.State) (writeFunc, error) {
		res, err := division.Reassign(current, request)
		if err != nil {
			return nil, err
		}
		result = res

		return func(pipe redis.Pipeliner) {
			for _, p := range res.UpdatedPupils {
				pipe.HSet(ctx, getPupilInfoKey(p.PupilID), map[string]interface{}{
					"className":      p.ClassName,
					"followUpNumber": p.FollowUpNumber,
				})
			}
			for _, c := range res.UpdatedClasses {
				pipe.HSet(ctx, getClassInfoKey(c.ClassID), "amountOfPupils", c.AmountOfPupils)
			}
		}, nil
	})
	if err != nil {
		return division.Result{}, err
	}

	log.Info().
		Int("assignments", len(request.Assignments)).
		Int("updated_pupils", len(result.UpdatedPupils)).
		Int("updated_classes", len(result.UpdatedClasses)).
		Msg("applied pupil assignments")

	return result, nil
}

// ImportPupils appends pupils that are not yet known to the state. Imported
// pupils are stored unassigned. It returns how many pupils were added.
func (s *RedisService) ImportPupils(ctx context.Context, pupils []models.Pupil) (int, error) {
	var added []models.Pupil

	err := s.update(ctx, func(current models.State) (writeFunc, error) {
		known := make(map[int]bool, len(current.Pupils)+len(pupils))
		for _, p := range current.Pupils {
			known[p.ID] = true
		}

		added = added[:0]
		for _, p := range pupils {
			if known[p.ID] {
				log.Debug().Int("pupil_id", p.ID).Msg("skipping pupil already in state")
				continue
			}
			known[p.ID] = true
			added = append(added, models.Pupil{ID: p.ID, Name: p.Name})
		}
		if len(added) == 0 {
			return nil, nil
		}

		return func(pipe redis.Pipeliner) {
			for _, p := range added {
				pipe.RPush(ctx, pupilsKey, p.ID)
				pipe.HSet(ctx, getPupilInfoKey(p.ID), pupilToHash(p))
			}
		}, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import pupils: %w", err)
	}

	log.Info().Int("imported", len(added)).Int("received", len(pupils)).Msg("imported pupils")

	return len(added), nil
}

// ImportPupilsFromExcel reads pupils from an Excel stream and imports them.
func (s *RedisService) ImportPupilsFromExcel(ctx context.Context, file io.Reader) (int, error) {
	pupils, err := ReadPupilsFromExcel(file)
	if err != nil {
		return 0, err
	}

	return s.ImportPupils(ctx, pupils)
}

// AddClass stores a new, empty class after the existing ones.
func (s *RedisService) AddClass(ctx context.Context, class models.Class) (models.Class, error) {
	var added models.Class

	err := s.update(ctx, func(current models.State) (writeFunc, error) {
		next, err := division.AddClass(current, class)
		if err != nil {
			return nil, err
		}
		added = next.Classes[len(next.Classes)-1]

		return func(pipe redis.Pipeliner) {
			pipe.RPush(ctx, classesKey, added.ID)
			pipe.HSet(ctx, getClassInfoKey(added.ID), classToHash(added))
		}, nil
	})
	if err != nil {
		return models.Class{}, fmt.Errorf("failed to add class: %w", err)
	}

	log.Info().Int("class_id", added.ID).Str("class_name", added.ClassName).Msg("added class")

	return added, nil
}

// ReplaceState overwrites the stored snapshot with state.
func (s *RedisService) ReplaceState(ctx context.Context, state models.State) error {
	err := s.update(ctx, func(current models.State) (writeFunc, error) {
		return func(pipe redis.Pipeliner) {
			for _, p := range current.Pupils {
				pipe.Del(ctx, getPupilInfoKey(p.ID))
			}
			for _, c := range current.Classes {
				pipe.Del(ctx, getClassInfoKey(c.ID))
			}
			pipe.Del(ctx, pupilsKey, classesKey)

			for _, p := range state.Pupils {
				pipe.RPush(ctx, pupilsKey, p.ID)
				pipe.HSet(ctx, getPupilInfoKey(p.ID), pupilToHash(p))
			}
			for _, c := range state.Classes {
				pipe.RPush(ctx, classesKey, c.ID)
				pipe.HSet(ctx, getClassInfoKey(c.ID), classToHash(c))
			}
		}, nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace state in Redis: %w", err)
	}

	return nil
}

// SeedIfEmpty stores InitialState when no classes exist yet.
func (s *RedisService) SeedIfEmpty(ctx context.Context) (bool, error) {
	exists, err := s.HasState(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		log.Info().Str("key", classesKey).Msg("existing class data found, skipping seed")
		return false, nil
	}

	log.Info().Str("key", classesKey).Msg("no class data found, adding initial state")
	if err := s.ReplaceState(ctx, InitialState()); err != nil {
		return false, err
	}

	return true, nil
}

// --- Hash encoding ---

func pupilToHash(p models.Pupil) map[string]interface{} {
	return map[string]interface{}{
		"id":             p.ID,
		"name":           p.Name,
		"className":      p.ClassName,
		"followUpNumber": p.FollowUpNumber,
	}
}

func pupilFromHash(data map[string]string) (models.Pupil, error) {
	if len(data) == 0 {
		return models.Pupil{}, errors.New("listed but not stored")
	}

	id, err := strconv.Atoi(data["id"])
	if err != nil {
		return models.Pupil{}, fmt.Errorf("invalid id: %w", err)
	}
	followUp, err := atoiOrZero(data["followUpNumber"])
	if err != nil {
		return models.Pupil{}, fmt.Errorf("invalid followUpNumber: %w", err)
	}

	return models.Pupil{
		ID:             id,
		Name:           data["name"],
		ClassName:      data["className"],
		FollowUpNumber: followUp,
	}, nil
}

func classToHash(c models.Class) map[string]interface{} {
	return map[string]interface{}{
		"id":                c.ID,
		"className":         c.ClassName,
		"teacherName":       c.TeacherName,
		"maxAmountOfPupils": c.MaxAmountOfPupils,
		"amountOfPupils":    c.AmountOfPupils,
	}
}

func classFromHash(data map[string]string) (models.Class, error) {
	if len(data) == 0 {
		return models.Class{}, errors.New("listed but not stored")
	}

	id, err := strconv.Atoi(data["id"])
	if err != nil {
		return models.Class{}, fmt.Errorf("invalid id: %w", err)
	}
	maxPupils, err := atoiOrZero(data["maxAmountOfPupils"])
	if err != nil {
		return models.Class{}, fmt.Errorf("invalid maxAmountOfPupils: %w", err)
	}
	amount, err := atoiOrZero(data["amountOfPupils"])
	if err != nil {
		return models.Class{}, fmt.Errorf("invalid amountOfPupils: %w", err)
	}

	return models.Class{
		ID:                id,
		ClassName:         data["className"],
		TeacherName:       data["teacherName"],
		MaxAmountOfPupils: maxPupils,
		AmountOfPupils:    amount,
	}, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	return strconv.Atoi(s)
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}

	log.Info().Str("addr", addr).Int("db", db).Msg("connected to Redis")

	return rdb, nil
}
