package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"quest-service/internal/app"
	"quest-service/internal/domain"
	"quest-service/internal/infra/memory"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	server  *httptest.Server
	store   *memory.QuestStore
	results *memory.ResultStore
	admin   *app.AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := func() time.Time { return testNow }
	store := memory.NewQuestStore()
	cache := memory.NewContentCache(store, time.Minute)
	results := memory.NewResultStore()
	admin := app.NewAdminService(store, cache, clock, nil)
	play := app.NewPlayService(memory.NewSessionStore(), store, cache, results, app.PlayConfig{Now: clock}, nil)

	router := NewRouter(RouterConfig{
		QuestHandler: NewQuestHandler(admin, clock),
		WSHandler:    NewWSHandler(play, nil),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, store: store, results: results, admin: admin}
}

// seedQuest stores quest-1, active around testNow, with sample content.
func (e *testEnv) seedQuest(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	quest := domain.Quest{
		ID:         "quest-1",
		Title:      "Arithmetic",
		ActiveFrom: testNow.Add(-24 * time.Hour),
		ActiveTo:   testNow.Add(24 * time.Hour),
	}
	if err := e.store.CreateQuest(ctx, quest); err != nil {
		t.Fatalf("create quest: %v", err)
	}
	if err := e.store.SaveContent(ctx, quest.ID, sampleContent()); err != nil {
		t.Fatalf("save content: %v", err)
	}
}

func sampleContent() domain.QuestContent {
	c := domain.EmptyContent()
	c.Questions = []domain.Question{
		{
			ID: "q1", Type: domain.SingleChoice, Text: "What is 2 + 2?",
			Options:     []domain.Option{{ID: "o1", Text: "3"}, {ID: "o2", Text: "4"}, {ID: "o3", Text: "5"}},
			Correct:     domain.SingleKey{Index: "1"},
			Points:      1,
			Explanation: "Basic addition.",
		},
		{
			ID: "q2", Type: domain.Text, Text: "Capital of France?",
			Correct: domain.TextKey{Text: "Paris"},
			Points:  1,
			Order:   1,
		},
	}
	return c
}
