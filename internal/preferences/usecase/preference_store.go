package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash/fnv"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
	cryptoUsecase "github.com/allisson/trustcore/internal/crypto/usecase"
	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
	apperrors "github.com/allisson/trustcore/internal/errors"
	prefsDomain "github.com/allisson/trustcore/internal/preferences/domain"
)

const (
	indexKeyInfo = "trustcore/prefs/index"
	lockStripes  = 64
)

type preferenceStore struct {
	repo        Repository
	secrets     cryptoUsecase.SecretStore
	aeadManager cryptoService.AEADManager
	algorithm   cryptoDomain.Algorithm
	publisher   eventsDomain.Publisher
	logger      *slog.Logger
	now         func() time.Time

	initMu   sync.Mutex
	cipher   cryptoService.AEAD
	indexKey []byte

	locks [lockStripes]sync.Mutex
}

// NewSecurePreferenceStore creates a store persisting through repo. The data
// key is created on first use, wrapped by secrets under prefsDomain.KEKAlias.
// algorithm applies only to a new store; an existing store keeps the
// algorithm recorded with its data key.
func NewSecurePreferenceStore(
	repo Repository,
	secrets cryptoUsecase.SecretStore,
	aeadManager cryptoService.AEADManager,
	algorithm cryptoDomain.Algorithm,
	publisher eventsDomain.Publisher,
	logger *slog.Logger,
) SecurePreferenceStore {
	if publisher == nil {
		publisher = eventsDomain.NopPublisher{}
	}
	if algorithm == "" {
		algorithm = cryptoDomain.AESGCM
	}
	return &preferenceStore{
		repo:        repo,
		secrets:     secrets,
		aeadManager: aeadManager,
		algorithm:   algorithm,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// keys loads or creates the data key, returning the value cipher and the
// index key used to derive record ids.
func (s *preferenceStore) keys(ctx context.Context) (cryptoService.AEAD, []byte, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.cipher != nil {
		return s.cipher, s.indexKey, nil
	}

	dek, algorithm, err := s.loadDataKey(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer cryptoDomain.Zero(dek)

	aead, err := s.aeadManager.CreateCipher(dek, algorithm)
	if err != nil {
		return nil, nil, err
	}

	indexKey := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, dek, nil, []byte(indexKeyInfo)), indexKey); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to derive index key")
	}

	s.cipher = aead
	s.indexKey = indexKey
	return s.cipher, s.indexKey, nil
}

func (s *preferenceStore) loadDataKey(ctx context.Context) ([]byte, cryptoDomain.Algorithm, error) {
	raw, err := s.repo.Get(ctx, prefsDomain.MetaRecordID)
	if errors.Is(err, prefsDomain.ErrRecordNotFound) {
		return s.createDataKey(ctx)
	}
	if err != nil {
		return nil, "", err
	}

	var meta prefsDomain.StoreMeta
	if err := cbor.Unmarshal(raw, &meta); err != nil {
		return nil, "", apperrors.Wrap(prefsDomain.ErrCorruptRecord, "store meta")
	}
	blob, err := cryptoDomain.ParseEncryptedBlob(meta.WrappedDEK)
	if err != nil {
		return nil, "", err
	}
	dek, err := s.secrets.Decrypt(ctx, blob, prefsDomain.KEKAlias)
	if err != nil {
		return nil, "", err
	}
	return dek, meta.Algorithm, nil
}

func (s *preferenceStore) createDataKey(ctx context.Context) ([]byte, cryptoDomain.Algorithm, error) {
	dek := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(dek); err != nil {
		return nil, "", apperrors.Wrap(err, "failed to generate data key")
	}

	wrapped, err := s.secrets.Encrypt(ctx, dek, prefsDomain.KEKAlias)
	if err != nil {
		cryptoDomain.Zero(dek)
		return nil, "", err
	}

	meta := prefsDomain.StoreMeta{
		Algorithm:  s.algorithm,
		WrappedDEK: wrapped.Bytes(),
		CreatedAt:  s.now().UTC(),
	}
	raw, err := cbor.Marshal(meta)
	if err != nil {
		cryptoDomain.Zero(dek)
		return nil, "", apperrors.Wrap(err, "failed to encode store meta")
	}
	if err := s.repo.Put(ctx, prefsDomain.MetaRecordID, raw); err != nil {
		cryptoDomain.Zero(dek)
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "created preference store key", slog.String("algorithm", string(s.algorithm)))
	return dek, s.algorithm, nil
}

func recordID(indexKey []byte, name string) string {
	mac := hmac.New(sha256.New, indexKey)
	mac.Write([]byte(name))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *preferenceStore) lockFor(name string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *preferenceStore) put(ctx context.Context, record prefsDomain.Record) error {
	if err := prefsDomain.ValidateKey(record.Name); err != nil {
		return err
	}
	aead, indexKey, err := s.keys(ctx)
	if err != nil {
		return err
	}

	payload, err := cbor.Marshal(record)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode preference")
	}
	defer cryptoDomain.Zero(payload)

	id := recordID(indexKey, record.Name)
	blob, err := aead.Seal(payload, []byte(id))
	if err != nil {
		return err
	}

	mu := s.lockFor(record.Name)
	mu.Lock()
	defer mu.Unlock()
	return s.repo.Put(ctx, id, blob.Bytes())
}

// get returns the decrypted record, or nil when key is absent.
func (s *preferenceStore) get(ctx context.Context, key string) (*prefsDomain.Record, error) {
	if err := prefsDomain.ValidateKey(key); err != nil {
		return nil, err
	}
	aead, indexKey, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}

	id := recordID(indexKey, key)

	mu := s.lockFor(key)
	mu.Lock()
	raw, err := s.repo.Get(ctx, id)
	mu.Unlock()

	if errors.Is(err, prefsDomain.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record, err := openRecord(aead, id, raw)
	if err != nil {
		return nil, err
	}
	if record.Name != key {
		return nil, prefsDomain.ErrCorruptRecord
	}
	return record, nil
}

func openRecord(aead cryptoService.AEAD, id string, raw []byte) (*prefsDomain.Record, error) {
	blob, err := cryptoDomain.ParseEncryptedBlob(raw)
	if err != nil {
		return nil, err
	}
	payload, err := aead.Open(blob, []byte(id))
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(payload)

	var record prefsDomain.Record
	if err := cbor.Unmarshal(payload, &record); err != nil {
		return nil, prefsDomain.ErrCorruptRecord
	}
	return &record, nil
}

func (s *preferenceStore) mismatch(ctx context.Context, key string, want, got prefsDomain.ValueType) {
	s.logger.DebugContext(ctx, "preference type mismatch, returning default",
		slog.String("want", want.String()),
		slog.String("got", got.String()),
		slog.Bool("sensitive", prefsDomain.IsSensitiveKey(key)),
	)
}

func (s *preferenceStore) PutString(ctx context.Context, key, value string) error {
	return s.put(ctx, prefsDomain.Record{Name: key, Type: prefsDomain.TypeString, String: value})
}

func (s *preferenceStore) PutBool(ctx context.Context, key string, value bool) error {
	return s.put(ctx, prefsDomain.Record{Name: key, Type: prefsDomain.TypeBool, Bool: value})
}

func (s *preferenceStore) PutInt(ctx context.Context, key string, value int32) error {
	return s.put(ctx, prefsDomain.Record{Name: key, Type: prefsDomain.TypeInt, Int: int64(value)})
}

func (s *preferenceStore) PutLong(ctx context.Context, key string, value int64) error {
	return s.put(ctx, prefsDomain.Record{Name: key, Type: prefsDomain.TypeLong, Int: value})
}

func (s *preferenceStore) GetString(ctx context.Context, key, def string) (string, error) {
	record, err := s.get(ctx, key)
	if err != nil || record == nil {
		return def, err
	}
	if record.Type != prefsDomain.TypeString {
		s.mismatch(ctx, key, prefsDomain.TypeString, record.Type)
		return def, nil
	}
	return record.String, nil
}

func (s *preferenceStore) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	record, err := s.get(ctx, key)
	if err != nil || record == nil {
		return def, err
	}
	if record.Type != prefsDomain.TypeBool {
		s.mismatch(ctx, key, prefsDomain.TypeBool, record.Type)
		return def, nil
	}
	return record.Bool, nil
}

func (s *preferenceStore) GetInt(ctx context.Context, key string, def int32) (int32, error) {
	record, err := s.get(ctx, key)
	if err != nil || record == nil {
		return def, err
	}
	if record.Type != prefsDomain.TypeInt {
		s.mismatch(ctx, key, prefsDomain.TypeInt, record.Type)
		return def, nil
	}
	return int32(record.Int), nil
}

func (s *preferenceStore) GetLong(ctx context.Context, key string, def int64) (int64, error) {
	record, err := s.get(ctx, key)
	if err != nil || record == nil {
		return def, err
	}
	if record.Type != prefsDomain.TypeLong {
		s.mismatch(ctx, key, prefsDomain.TypeLong, record.Type)
		return def, nil
	}
	return record.Int, nil
}

func (s *preferenceStore) Remove(ctx context.Context, key string) error {
	if err := prefsDomain.ValidateKey(key); err != nil {
		return err
	}
	_, indexKey, err := s.keys(ctx)
	if err != nil {
		return err
	}

	mu := s.lockFor(key)
	mu.Lock()
	defer mu.Unlock()
	return s.repo.Delete(ctx, recordID(indexKey, key))
}

// Clear removes every preference. The wrapped data key is kept so the
// store stays usable.
func (s *preferenceStore) Clear(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return err
	}
	s.publisher.Publish(eventsDomain.DataAccessEvent("preferences", "clear", ""))
	return nil
}

func (s *preferenceStore) Contains(ctx context.Context, key string) (bool, error) {
	record, err := s.get(ctx, key)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

// records decrypts every stored entry.
func (s *preferenceStore) records(ctx context.Context) ([]prefsDomain.Record, error) {
	aead, _, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]prefsDomain.Record, 0, len(entries))
	for _, entry := range entries {
		record, err := openRecord(aead, entry.ID, entry.Payload)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

func (s *preferenceStore) Keys(ctx context.Context) ([]string, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(records))
	for _, record := range records {
		keys = append(keys, record.Name)
	}
	return keys, nil
}

func (s *preferenceStore) Dump(ctx context.Context) (map[string]string, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}

	dump := make(map[string]string, len(records))
	for _, record := range records {
		if prefsDomain.IsSensitiveKey(record.Name) {
			continue
		}
		dump[record.Name] = formatValue(record)
	}
	s.publisher.Publish(eventsDomain.DataAccessEvent("preferences", "dump", ""))
	return dump, nil
}

func formatValue(record prefsDomain.Record) string {
	switch record.Type {
	case prefsDomain.TypeString:
		return record.String
	case prefsDomain.TypeBool:
		return strconv.FormatBool(record.Bool)
	default:
		return strconv.FormatInt(record.Int, 10)
	}
}
