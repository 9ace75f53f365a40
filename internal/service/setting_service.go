package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/poshpearl/poshpearl/internal/cache"
	"github.com/poshpearl/poshpearl/internal/config"
	"github.com/poshpearl/poshpearl/internal/constants"
	"github.com/poshpearl/poshpearl/internal/models"
	"github.com/poshpearl/poshpearl/internal/repository"
)

const siteConfigCacheKey = "setting:site_config"

const siteConfigCacheTTL = 5 * time.Minute

// SettingService 设置业务服务
type SettingService struct {
	repo    repository.SettingRepository
	siteCfg config.SiteConfig
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository, siteCfg config.SiteConfig) *SettingService {
	return &SettingService{repo: repo, siteCfg: siteCfg}
}

// GetSiteConfig 获取站点配置（数据库覆盖配置文件默认值）
func (s *SettingService) GetSiteConfig(ctx context.Context) (map[string]interface{}, error) {
	var cached map[string]interface{}
	if found, err := cache.GetJSON(ctx, siteConfigCacheKey, &cached); err == nil && found {
		return cached, nil
	}

	data := map[string]interface{}{
		constants.SettingKeySiteName:      s.siteCfg.Name,
		constants.SettingKeySiteURL:       s.siteCfg.URL,
		constants.SettingKeySupportEmail:  s.siteCfg.SupportEmail,
		constants.SettingKeyCurrency:      s.siteCfg.Currency,
		constants.SettingKeyLowStockLevel: constants.ProductLowStockThreshold,
	}
	for _, key := range []string{
		constants.SettingKeySiteName,
		constants.SettingKeySiteURL,
		constants.SettingKeySupportEmail,
		constants.SettingKeyCurrency,
		constants.SettingKeyLowStockLevel,
	} {
		setting, err := s.repo.GetByKey(key)
		if err != nil {
			return nil, err
		}
		if setting != nil {
			if v, ok := setting.ValueJSON["value"]; ok {
				data[key] = v
			}
		}
	}

	_ = cache.SetJSON(ctx, siteConfigCacheKey, data, siteConfigCacheTTL)
	return data, nil
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 设置值
func (s *SettingService) Update(ctx context.Context, key string, value map[string]interface{}) (models.JSON, error) {
	setting, err := s.repo.Upsert(key, value)
	if err != nil {
		return nil, err
	}
	_ = cache.Del(ctx, siteConfigCacheKey)
	return setting.ValueJSON, nil
}

// EmailFlagEnabled 指定邮件开关是否开启，默认开启
func (s *SettingService) EmailFlagEnabled(key string) bool {
	if s == nil || s.repo == nil {
		return true
	}
	value, err := s.GetByKey(key)
	if err != nil || value == nil {
		return true
	}
	raw, ok := value["value"]
	if !ok {
		return true
	}
	return parseSettingBool(raw, true)
}

func parseSettingBool(raw interface{}, fallback bool) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fallback
		}
		return parsed
	case float64:
		return v != 0
	default:
		return fallback
	}
}
