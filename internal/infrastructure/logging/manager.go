// Package logging provides the hierarchical logging manager handed to the
// model tree. Every model logs to a category derived from its path ("/app/db"
// logs to "app.db"); category priorities come from the system config and from
// the categories directives of profiles and targets.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/model"
	"github.com/reglet-dev/composer/internal/domain/values"
)

// LevelNone disables a category.
const LevelNone = slog.Level(1 << 10)

// ParseLevel converts a priority name to a slog level.
func ParseLevel(priority string) (slog.Level, error) {
	switch strings.ToLower(priority) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "none", "off":
		return LevelNone, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown logging priority %q", priority)
	}
}

// Manager hands out loggers whose level follows the most specific configured
// category. Levels may change after a logger was handed out.
type Manager struct {
	handler slog.Handler
	logger  *slog.Logger

	mu     sync.RWMutex
	root   slog.Level
	levels map[string]slog.Level
}

var _ model.LoggingManager = (*Manager)(nil)

// NewManager creates a manager writing to handler. The handler should accept
// every level; filtering happens per category.
func NewManager(handler slog.Handler, root slog.Level, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		handler: handler,
		logger:  logger,
		root:    root,
		levels:  make(map[string]slog.Level),
	}
}

// SetLevel sets the priority of category. The empty category is the root.
func (m *Manager) SetLevel(category string, level slog.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if category == "" {
		m.root = level
		return
	}
	m.levels[category] = level
}

// Level returns the effective level of category.
func (m *Manager) Level(category string) slog.Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for c := category; c != ""; c = parent(c) {
		if level, ok := m.levels[c]; ok {
			return level
		}
	}
	return m.root
}

func parent(category string) string {
	i := strings.LastIndexByte(category, '.')
	if i < 0 {
		return ""
	}
	return category[:i]
}

// AddCategories applies a categories directive to the model at path. The
// directive priority sets the model's own category; child categories are
// nested beneath it. Unknown priorities are logged and ignored.
func (m *Manager) AddCategories(path string, categories *entities.CategoriesDirective) {
	if categories == nil {
		return
	}
	base := values.LoggingCategory(path)
	if categories.Priority != "" {
		m.apply(base, categories.Priority)
	}
	for _, c := range categories.Categories {
		name := c.Name
		if base != "" {
			name = base + "." + c.Name
		}
		m.apply(name, c.Priority)
	}
}

func (m *Manager) apply(category, priority string) {
	level, err := ParseLevel(priority)
	if err != nil {
		m.logger.Warn("ignoring logging category", "category", category, "error", err)
		return
	}
	m.SetLevel(category, level)
}

// Logger returns the logger of the model at path.
func (m *Manager) Logger(path string) *slog.Logger {
	category := values.LoggingCategory(path)
	h := &categoryHandler{manager: m, category: category, inner: m.handler}
	return slog.New(h).With("model", path)
}

type categoryHandler struct {
	manager  *Manager
	category string
	inner    slog.Handler
}

func (h *categoryHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.manager.Level(h.category) && h.inner.Enabled(ctx, level)
}

func (h *categoryHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *categoryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &categoryHandler{manager: h.manager, category: h.category, inner: h.inner.WithAttrs(attrs)}
}

func (h *categoryHandler) WithGroup(name string) slog.Handler {
	return &categoryHandler{manager: h.manager, category: h.category, inner: h.inner.WithGroup(name)}
}
