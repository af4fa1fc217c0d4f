package app

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"quiz-client/internal/domain"
	"quiz-client/internal/state"
)

// DefaultUsername is shown when no username is stored.
const DefaultUsername = "User"

var errNoCategories = errors.New("no categories loaded")

// HomeController lists categories and starts quizzes.
type HomeController struct {
	controller
	api   CatalogAPI
	store CredentialStore

	mu    sync.Mutex
	known []domain.Category

	categories state.Slot[[]domain.Category]
	started    state.Slot[domain.StartQuizResponse]
}

func NewHomeController(api CatalogAPI, store CredentialStore, log *zap.Logger) *HomeController {
	return &HomeController{controller: newController(log), api: api, store: store}
}

func (c *HomeController) CategoriesState() *state.Slot[[]domain.Category] { return &c.categories }

func (c *HomeController) StartedState() *state.Slot[domain.StartQuizResponse] { return &c.started }

// LoadCategories always fetches; categories are never cached across loads.
func (c *HomeController) LoadCategories() {
	state.Launch(c.scope, &c.categories, func(ctx context.Context) ([]domain.Category, error) {
		categories, err := c.api.Categories(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.known = categories
		c.mu.Unlock()
		return categories, nil
	}, c.describe(labelCategories, nil))
}

// StartQuiz starts a quiz of DefaultQuestionCount questions. A nil categoryID
// picks one at random from the last loaded categories that have questions.
func (c *HomeController) StartQuiz(categoryID *int) {
	state.Launch(c.scope, &c.started, func(ctx context.Context) (domain.StartQuizResponse, error) {
		id := categoryID
		if id == nil {
			picked, err := c.randomCategory()
			if err != nil {
				return domain.StartQuizResponse{}, err
			}
			id = &picked
		}
		return c.api.StartQuiz(ctx, id, domain.DefaultQuestionCount)
	}, c.describe(labelStartQuiz, nil))
}

func (c *HomeController) randomCategory() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.known) == 0 {
		return 0, errNoCategories
	}
	// Skip banks the server reports as empty, unless that leaves nothing.
	pool := make([]domain.Category, 0, len(c.known))
	for _, cat := range c.known {
		if cat.QuestionCount > 0 {
			pool = append(pool, cat)
		}
	}
	if len(pool) == 0 {
		pool = c.known
	}
	return pool[rand.IntN(len(pool))].ID, nil
}

// Username returns the stored username, or DefaultUsername.
func (c *HomeController) Username(ctx context.Context) string {
	if name, ok := c.store.Username(ctx); ok && name != "" {
		return name
	}
	return DefaultUsername
}

func (c *HomeController) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.categories.Reset()
	c.started.Reset()
	return nil
}
