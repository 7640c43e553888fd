package usecase

import (
	"context"
	"errors"
	"log/slog"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
	"github.com/allisson/trustcore/internal/database"
	eventsDomain "github.com/allisson/trustcore/internal/events/domain"
)

type secretStore struct {
	facility  cryptoService.KeyFacility
	spec      cryptoDomain.KeySpec
	txManager database.TxManager
	publisher eventsDomain.Publisher
	logger    *slog.Logger
}

// NewSecretStore creates a SecretStore generating keys with spec. txManager
// makes key rotation atomic on SQL backends; nil selects database.NopTxManager.
func NewSecretStore(
	facility cryptoService.KeyFacility,
	spec cryptoDomain.KeySpec,
	txManager database.TxManager,
	publisher eventsDomain.Publisher,
	logger *slog.Logger,
) SecretStore {
	if txManager == nil {
		txManager = database.NopTxManager{}
	}
	if publisher == nil {
		publisher = eventsDomain.NopPublisher{}
	}
	return &secretStore{
		facility:  facility,
		spec:      spec,
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *secretStore) Encrypt(
	ctx context.Context,
	plaintext []byte,
	keyAlias string,
) (blob cryptoDomain.EncryptedBlob, err error) {
	defer func() { s.record(ctx, "encrypt", err) }()

	if err := cryptoDomain.ValidateAlias(keyAlias); err != nil {
		return cryptoDomain.EncryptedBlob{}, err
	}

	handle, err := s.facility.Generate(ctx, keyAlias, s.spec)
	if err != nil {
		return cryptoDomain.EncryptedBlob{}, err
	}

	return handle.Seal(plaintext, nil)
}

func (s *secretStore) Decrypt(
	ctx context.Context,
	blob cryptoDomain.EncryptedBlob,
	keyAlias string,
) (plaintext []byte, err error) {
	defer func() { s.record(ctx, "decrypt", err) }()

	if err := cryptoDomain.ValidateAlias(keyAlias); err != nil {
		return nil, err
	}

	handle, err := s.facility.Handle(ctx, keyAlias)
	if err != nil {
		return nil, err
	}

	return handle.Open(blob, nil)
}

func (s *secretStore) DeleteKey(ctx context.Context, keyAlias string) (err error) {
	defer func() { s.record(ctx, "delete_key", err) }()

	if err := cryptoDomain.ValidateAlias(keyAlias); err != nil {
		return err
	}
	return s.facility.Delete(ctx, keyAlias)
}

func (s *secretStore) RotateKey(ctx context.Context, oldAlias, newAlias string) (err error) {
	defer func() { s.record(ctx, "rotate_key", err) }()

	if err := cryptoDomain.ValidateAlias(oldAlias); err != nil {
		return err
	}
	if err := cryptoDomain.ValidateAlias(newAlias); err != nil {
		return err
	}

	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.facility.Delete(ctx, oldAlias); err != nil {
			return err
		}
		_, err := s.facility.Generate(ctx, newAlias, s.spec)
		return err
	})
}

func (s *secretStore) KeyExists(ctx context.Context, keyAlias string) (bool, error) {
	if err := cryptoDomain.ValidateAlias(keyAlias); err != nil {
		return false, err
	}
	return s.facility.Exists(ctx, keyAlias)
}

// record emits the ENCRYPTION audit event. Aliases and plaintext are never
// part of the event.
func (s *secretStore) record(ctx context.Context, operation string, err error) {
	s.publisher.Publish(eventsDomain.CryptoOperation(operation, err == nil))

	if err != nil && !errors.Is(err, cryptoDomain.ErrInvalidKeyAlias) {
		s.logger.WarnContext(ctx, "crypto operation failed",
			slog.String("operation", operation),
			slog.Any("error", err),
		)
	}
}
