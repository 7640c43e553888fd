package usecase

import (
	"context"
	"time"

	"github.com/allisson/trustcore/internal/metrics"
)

// preferenceStoreWithMetrics decorates SecurePreferenceStore with metrics instrumentation.
type preferenceStoreWithMetrics struct {
	next    SecurePreferenceStore
	metrics metrics.BusinessMetrics
}

// NewSecurePreferenceStoreWithMetrics wraps a SecurePreferenceStore with metrics recording.
func NewSecurePreferenceStoreWithMetrics(store SecurePreferenceStore, m metrics.BusinessMetrics) SecurePreferenceStore {
	return &preferenceStoreWithMetrics{next: store, metrics: m}
}

func (p *preferenceStoreWithMetrics) observe(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "preferences", operation, status)
	p.metrics.RecordDuration(ctx, "preferences", operation, time.Since(start), status)
}

func (p *preferenceStoreWithMetrics) PutString(ctx context.Context, key, value string) error {
	start := time.Now()
	err := p.next.PutString(ctx, key, value)
	p.observe(ctx, "pref_put", start, err)
	return err
}

func (p *preferenceStoreWithMetrics) PutBool(ctx context.Context, key string, value bool) error {
	start := time.Now()
	err := p.next.PutBool(ctx, key, value)
	p.observe(ctx, "pref_put", start, err)
	return err
}

func (p *preferenceStoreWithMetrics) PutInt(ctx context.Context, key string, value int32) error {
	start := time.Now()
	err := p.next.PutInt(ctx, key, value)
	p.observe(ctx, "pref_put", start, err)
	return err
}

func (p *preferenceStoreWithMetrics) PutLong(ctx context.Context, key string, value int64) error {
	start := time.Now()
	err := p.next.PutLong(ctx, key, value)
	p.observe(ctx, "pref_put", start, err)
	return err
}

func (p *preferenceStoreWithMetrics) GetString(ctx context.Context, key, def string) (string, error) {
	start := time.Now()
	v, err := p.next.GetString(ctx, key, def)
	p.observe(ctx, "pref_get", start, err)
	return v, err
}

func (p *preferenceStoreWithMetrics) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	start := time.Now()
	v, err := p.next.GetBool(ctx, key, def)
	p.observe(ctx, "pref_get", start, err)
	return v, err
}

func (p *preferenceStoreWithMetrics) GetInt(ctx context.Context, key string, def int32) (int32, error) {
	start := time.Now()
	v, err := p.next.GetInt(ctx, key, def)
	p.observe(ctx, "pref_get", start, err)
	return v, err
}

func (p *preferenceStoreWithMetrics) GetLong(ctx context.Context, key string, def int64) (int64, error) {
	start := time.Now()
	v, err := p.next.GetLong(ctx, key, def)
	p.observe(ctx, "pref_get", start, err)
	return v, err
}

func (p *preferenceStoreWithMetrics) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := p.next.Remove(ctx, key)
	p.observe(ctx, "pref_remove", start, err)
	return err
}

func (p *preferenceStoreWithMetrics) Clear(ctx context.Context) error {
	start := time.Now()
	err := p.next.Clear(ctx)
	p.observe(ctx, "pref_clear", start, err)
	return err
}

// Contains is not instrumented.
func (p *preferenceStoreWithMetrics) Contains(ctx context.Context, key string) (bool, error) {
	return p.next.Contains(ctx, key)
}

// Keys is not instrumented.
func (p *preferenceStoreWithMetrics) Keys(ctx context.Context) ([]string, error) {
	return p.next.Keys(ctx)
}

func (p *preferenceStoreWithMetrics) Dump(ctx context.Context) (map[string]string, error) {
	start := time.Now()
	dump, err := p.next.Dump(ctx)
	p.observe(ctx, "pref_dump", start, err)
	return dump, err
}
