package app

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/corethreads/commerce/internal/domain"
)

const settingsCacheTTL = 30 * time.Second

// ConfigManager reads runtime settings from the sys_config table with a
// short-lived cache. Values are stored as strings and cast on read.
type ConfigManager struct {
	db       *gorm.DB
	mu       sync.RWMutex
	cache    map[string]string
	loadedAt time.Time
}

// NewConfigManager creates a manager over db.
func NewConfigManager(db *gorm.DB) *ConfigManager {
	return &ConfigManager{db: db, cache: map[string]string{}}
}

func (m *ConfigManager) load() map[string]string {
	m.mu.RLock()
	if time.Since(m.loadedAt) < settingsCacheTTL {
		cache := m.cache
		m.mu.RUnlock()
		return cache
	}
	m.mu.RUnlock()

	var rows []domain.SysConfig
	if err := m.db.Find(&rows).Error; err != nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.cache
	}

	cache := make(map[string]string, len(rows))
	for _, row := range rows {
		cache[row.Type+"."+row.Name] = row.Value
	}

	m.mu.Lock()
	m.cache = cache
	m.loadedAt = time.Now()
	m.mu.Unlock()
	return cache
}

// Invalidate drops the cache so the next read hits the database.
func (m *ConfigManager) Invalidate() {
	m.mu.Lock()
	m.loadedAt = time.Time{}
	m.mu.Unlock()
}

// GetString returns the setting value or "".
func (m *ConfigManager) GetString(category, name string) string {
	return m.load()[category+"."+name]
}

// GetInt64 returns the setting cast to int64, 0 when unset or unparsable.
func (m *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.GetString(category, name))
}

// GetBool returns the setting cast to bool, false when unset.
func (m *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(m.GetString(category, name))
}

// Set updates or creates a setting by its "category.name" key and drops the
// cache.
func (m *ConfigManager) Set(key, value string) error {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return errors.Errorf("invalid config key format: %s", key)
	}

	var row domain.SysConfig
	err := m.db.Where("type = ? AND name = ?", parts[0], parts[1]).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = m.db.Create(&domain.SysConfig{
			Type:  parts[0],
			Name:  parts[1],
			Value: value,
		}).Error
	case err == nil:
		err = m.db.Model(&domain.SysConfig{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{"value": value, "updated_at": time.Now()}).Error
	}
	if err != nil {
		return err
	}

	m.Invalidate()
	return nil
}
