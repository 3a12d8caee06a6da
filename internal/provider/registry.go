package provider

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Avstn1/shearworkWEB-sub002/config"
)

// Registry 按偏好顺序登记的适配器集合
type Registry struct {
	order    []string
	adapters map[string]Adapter
}

// NewRegistry 创建注册表，参数顺序即偏好顺序
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register 登记适配器，同名覆盖但保留原有顺序
func (r *Registry) Register(a Adapter) {
	name := a.Name()
	if _, exists := r.adapters[name]; !exists {
		r.order = append(r.order, name)
	}
	r.adapters[name] = a
}

// Get 按平台名查找
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names 偏好顺序的平台名
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Rank 平台在偏好顺序中的位置，未登记的排在最后
func (r *Registry) Rank(name string) int {
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return len(r.order)
}

// NewRegistryFromConfig 按配置构建 REST / ICS 适配器
func NewRegistryFromConfig(cfg *config.AvailabilityConfig, loc *time.Location, logger *zap.Logger) (*Registry, error) {
	reg := NewRegistry()
	for _, sc := range cfg.Sources {
		switch sc.Kind {
		case "rest":
			reg.Register(NewRESTAdapter(sc, loc, cfg.ProviderTimeout))
		case "ics":
			reg.Register(NewICSAdapter(sc, loc, cfg.ProviderTimeout))
		default:
			return nil, fmt.Errorf("平台 %s 的适配器类型 %q 不支持", sc.Name, sc.Kind)
		}
		logger.Info("已注册预约平台适配器",
			zap.String("source", sc.Name),
			zap.String("kind", sc.Kind),
		)
	}
	return reg, nil
}
