package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glpitrack/glpitrack/internal/database"
	"github.com/glpitrack/glpitrack/internal/models"
	"github.com/glpitrack/glpitrack/internal/repository"
)

func newTestUser(t *testing.T, users repository.UserRepository, email string) *models.User {
	t.Helper()
	user, err := users.Create(email, "hash")
	require.NoError(t, err)
	return user
}

func TestUserRepository(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	users := repository.NewUserRepository(db)

	t.Run("CreateAndGet", func(t *testing.T) {
		user := newTestUser(t, users, "alice@example.com")
		assert.NotZero(t, user.ID)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.False(t, user.CreatedAt.IsZero())

		byEmail, err := users.GetByEmail("alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		byID, err := users.GetByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", byID.Email)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		newTestUser(t, users, "dup@example.com")
		_, err := users.Create("dup@example.com", "hash")
		assert.Error(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := users.GetByEmail("nobody@example.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = users.GetByID(99999)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestGLPIConfigRepository(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	users := repository.NewUserRepository(db)
	configs := repository.NewGLPIConfigRepository(db)
	user := newTestUser(t, users, "alice@example.com")

	t.Run("LoadAbsentReturnsNil", func(t *testing.T) {
		cfg, err := configs.Load(user.ID)
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		err := configs.Save(user.ID, &models.GLPIConfig{
			BaseURL:   "https://glpi.example.com",
			AppToken:  "app",
			UserToken: "tok",
		})
		require.NoError(t, err)

		cfg, err := configs.Load(user.ID)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "https://glpi.example.com", cfg.BaseURL)
		assert.Equal(t, "app", cfg.AppToken)
		assert.Equal(t, "tok", cfg.UserToken)
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		err := configs.Save(user.ID, &models.GLPIConfig{
			BaseURL:   "https://other.example.com",
			AppToken:  "app2",
			UserToken: "tok2",
		})
		require.NoError(t, err)

		cfg, err := configs.Load(user.ID)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "https://other.example.com", cfg.BaseURL)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, configs.Clear(user.ID))
		cfg, err := configs.Load(user.ID)
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})
}

func TestTrackedTicketRepository(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	users := repository.NewUserRepository(db)
	tickets := repository.NewTrackedTicketRepository(db)
	user := newTestUser(t, users, "alice@example.com")
	other := newTestUser(t, users, "bob@example.com")

	track := func(t *testing.T, userID int, ticketID string) *models.TrackedTicket {
		t.Helper()
		stored, err := tickets.Upsert(&models.TrackedTicket{
			UserID:        userID,
			TicketID:      ticketID,
			Title:         "Printer down",
			Status:        "new",
			Priority:      "medium",
			Assignee:      "Unassigned",
			Requester:     "Alice Smith",
			GLPICreatedAt: "2024-01-01 09:00:00",
			GLPIUpdatedAt: "2024-01-01 09:00:00",
		})
		require.NoError(t, err)
		return stored
	}

	t.Run("UpsertAndGet", func(t *testing.T) {
		stored := track(t, user.ID, "100")
		assert.Equal(t, "100", stored.TicketID)
		assert.Equal(t, "Printer down", stored.Title)

		got, err := tickets.Get(user.ID, "100")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, got.ID)
	})

	t.Run("UpsertRefreshesExisting", func(t *testing.T) {
		track(t, user.ID, "101")
		updated, err := tickets.Upsert(&models.TrackedTicket{
			UserID:        user.ID,
			TicketID:      "101",
			Title:         "Printer still down",
			Status:        "in-progress",
			Priority:      "high",
			Assignee:      "Carol Jones",
			Requester:     "Alice Smith",
			HasNewUpdates: true,
			GLPICreatedAt: "2024-01-01 09:00:00",
			GLPIUpdatedAt: "2024-01-02 09:00:00",
		})
		require.NoError(t, err)
		assert.Equal(t, "Printer still down", updated.Title)
		assert.Equal(t, "in-progress", updated.Status)
		assert.True(t, updated.HasNewUpdates)

		all, err := tickets.List(user.ID)
		require.NoError(t, err)
		ids := make([]string, 0, len(all))
		for _, ticket := range all {
			ids = append(ids, ticket.TicketID)
		}
		assert.Contains(t, ids, "101")
	})

	t.Run("UpdatePartial", func(t *testing.T) {
		track(t, user.ID, "102")
		updated, err := tickets.Update(user.ID, "102", map[string]any{
			"status":          "resolved",
			"has_new_updates": false,
		})
		require.NoError(t, err)
		assert.Equal(t, "resolved", updated.Status)
		assert.Equal(t, "Printer down", updated.Title)
	})

	t.Run("UpdateRejectsUnknownField", func(t *testing.T) {
		track(t, user.ID, "103")
		_, err := tickets.Update(user.ID, "103", map[string]any{"user_id": 999})
		assert.Error(t, err)
	})

	t.Run("UpdateMissingTicket", func(t *testing.T) {
		_, err := tickets.Update(user.ID, "does-not-exist", map[string]any{"status": "new"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("ScopedPerUser", func(t *testing.T) {
		track(t, user.ID, "104")
		_, err := tickets.Get(other.ID, "104")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		track(t, user.ID, "105")
		require.NoError(t, tickets.Delete(user.ID, "105"))
		_, err := tickets.Get(user.ID, "105")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("ColumnAssignment", func(t *testing.T) {
		columns := repository.NewKanbanColumnRepository(db)
		column, err := columns.Create(user.ID, "Doing")
		require.NoError(t, err)

		track(t, user.ID, "106")
		updated, err := tickets.Update(user.ID, "106", map[string]any{"column_id": column.ID})
		require.NoError(t, err)
		require.NotNil(t, updated.ColumnID)
		assert.Equal(t, column.ID, *updated.ColumnID)

		// Deleting the column unassigns its tickets instead of deleting them.
		require.NoError(t, columns.Delete(user.ID, column.ID))
		got, err := tickets.Get(user.ID, "106")
		require.NoError(t, err)
		assert.Nil(t, got.ColumnID)
	})
}

func TestKanbanColumnRepository(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	users := repository.NewUserRepository(db)
	columns := repository.NewKanbanColumnRepository(db)
	user := newTestUser(t, users, "alice@example.com")

	t.Run("CreateAppendsAtEnd", func(t *testing.T) {
		todo, err := columns.Create(user.ID, "To do")
		require.NoError(t, err)
		doing, err := columns.Create(user.ID, "Doing")
		require.NoError(t, err)
		done, err := columns.Create(user.ID, "Done")
		require.NoError(t, err)

		assert.Equal(t, 0, todo.Position)
		assert.Equal(t, 1, doing.Position)
		assert.Equal(t, 2, done.Position)
	})

	t.Run("ListInBoardOrder", func(t *testing.T) {
		list, err := columns.List(user.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "To do", list[0].Name)
		assert.Equal(t, "Doing", list[1].Name)
		assert.Equal(t, "Done", list[2].Name)
	})

	t.Run("Reorder", func(t *testing.T) {
		list, err := columns.List(user.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)

		require.NoError(t, columns.Reorder(user.ID, []int{list[2].ID, list[0].ID, list[1].ID}))

		reordered, err := columns.List(user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Done", reordered[0].Name)
		assert.Equal(t, "To do", reordered[1].Name)
		assert.Equal(t, "Doing", reordered[2].Name)
	})

	t.Run("Rename", func(t *testing.T) {
		list, err := columns.List(user.ID)
		require.NoError(t, err)
		require.NoError(t, columns.Rename(user.ID, list[0].ID, "Shipped"))

		renamed, err := columns.List(user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Shipped", renamed[0].Name)
	})

	t.Run("RenameMissing", func(t *testing.T) {
		err := columns.Rename(user.ID, 99999, "Nope")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestReminderRepository(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	users := repository.NewUserRepository(db)
	reminders := repository.NewReminderRepository(db)
	user := newTestUser(t, users, "alice@example.com")

	now := time.Now().UTC().Truncate(time.Second)

	create := func(t *testing.T, id string, remindAt time.Time) *models.Reminder {
		t.Helper()
		reminder := &models.Reminder{
			ID:       id,
			UserID:   user.ID,
			TicketID: "100",
			Phone:    "+5511999999999",
			Message:  "check the ticket",
			RemindAt: remindAt,
		}
		require.NoError(t, reminders.Create(reminder))
		return reminder
	}

	t.Run("CreateAndList", func(t *testing.T) {
		create(t, "r-later", now.Add(2*time.Hour))
		create(t, "r-soon", now.Add(time.Hour))

		list, err := reminders.List(user.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "r-soon", list[0].ID)
		assert.Equal(t, "r-later", list[1].ID)
	})

	t.Run("DueReturnsOnlyUnsentPast", func(t *testing.T) {
		create(t, "r-due", now.Add(-time.Minute))

		due, err := reminders.Due(now)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, "r-due", due[0].ID)

		require.NoError(t, reminders.MarkSent("r-due", now))
		due, err = reminders.Due(now)
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("Delete", func(t *testing.T) {
		create(t, "r-gone", now.Add(time.Hour))
		require.NoError(t, reminders.Delete(user.ID, "r-gone"))

		list, err := reminders.List(user.ID)
		require.NoError(t, err)
		for _, reminder := range list {
			assert.NotEqual(t, "r-gone", reminder.ID)
		}
	})
}
