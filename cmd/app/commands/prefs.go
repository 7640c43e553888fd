package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	prefsUseCase "github.com/allisson/trustcore/internal/preferences/usecase"
)

// Preference value types accepted by the prefs commands.
const (
	PrefTypeString = "string"
	PrefTypeBool   = "bool"
	PrefTypeInt    = "int"
	PrefTypeLong   = "long"
)

func validatePrefType(valueType string) error {
	switch valueType {
	case PrefTypeString, PrefTypeBool, PrefTypeInt, PrefTypeLong:
		return nil
	default:
		return fmt.Errorf("invalid type: %s (valid options: string, bool, int, long)", valueType)
	}
}

// RunPrefsGet prints the value stored under key, or def when it is missing
// or stored with another type.
func RunPrefsGet(
	ctx context.Context,
	store prefsUseCase.SecurePreferenceStore,
	writer io.Writer,
	key string,
	valueType string,
	def string,
) error {
	if err := validatePrefType(valueType); err != nil {
		return err
	}

	var (
		value any
		err   error
	)
	switch valueType {
	case PrefTypeString:
		value, err = store.GetString(ctx, key, def)
	case PrefTypeBool:
		var d bool
		if def != "" {
			if d, err = strconv.ParseBool(def); err != nil {
				return fmt.Errorf("invalid default for bool: %s", def)
			}
		}
		value, err = store.GetBool(ctx, key, d)
	case PrefTypeInt:
		var d int64
		if def != "" {
			if d, err = strconv.ParseInt(def, 10, 32); err != nil {
				return fmt.Errorf("invalid default for int: %s", def)
			}
		}
		value, err = store.GetInt(ctx, key, int32(d))
	case PrefTypeLong:
		var d int64
		if def != "" {
			if d, err = strconv.ParseInt(def, 10, 64); err != nil {
				return fmt.Errorf("invalid default for long: %s", def)
			}
		}
		value, err = store.GetLong(ctx, key, d)
	}
	if err != nil {
		return fmt.Errorf("failed to read preference: %w", err)
	}

	_, err = fmt.Fprintln(writer, value)
	return err
}

// RunPrefsPut stores value under key after parsing it as valueType. A value
// of "-" is read from the input.
func RunPrefsPut(
	ctx context.Context,
	store prefsUseCase.SecurePreferenceStore,
	logger *slog.Logger,
	streams IOTuple,
	key string,
	valueType string,
	value string,
) error {
	if err := validatePrefType(valueType); err != nil {
		return err
	}
	value, err := readValue(streams.Reader, value)
	if err != nil {
		return err
	}

	switch valueType {
	case PrefTypeString:
		err = store.PutString(ctx, key, value)
	case PrefTypeBool:
		b, parseErr := strconv.ParseBool(value)
		if parseErr != nil {
			return fmt.Errorf("invalid bool value: %s", value)
		}
		err = store.PutBool(ctx, key, b)
	case PrefTypeInt:
		n, parseErr := strconv.ParseInt(value, 10, 32)
		if parseErr != nil {
			return fmt.Errorf("invalid int value: %s", value)
		}
		err = store.PutInt(ctx, key, int32(n))
	case PrefTypeLong:
		n, parseErr := strconv.ParseInt(value, 10, 64)
		if parseErr != nil {
			return fmt.Errorf("invalid long value: %s", value)
		}
		err = store.PutLong(ctx, key, n)
	}
	if err != nil {
		return fmt.Errorf("failed to store preference: %w", err)
	}

	logger.Info("preference stored", slog.String("key", key), slog.String("type", valueType))
	_, err = fmt.Fprintf(streams.Writer, "Stored %s\n", key)
	return err
}

// RunPrefsRemove removes key. Removing a missing key succeeds.
func RunPrefsRemove(
	ctx context.Context,
	store prefsUseCase.SecurePreferenceStore,
	logger *slog.Logger,
	writer io.Writer,
	key string,
	all bool,
) error {
	if all {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear preferences: %w", err)
		}
		logger.Info("preferences cleared")
		_, err := fmt.Fprintln(writer, "All preferences removed")
		return err
	}

	if key == "" {
		return fmt.Errorf("a key or --all is required")
	}
	if err := store.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to remove preference: %w", err)
	}
	logger.Info("preference removed", slog.String("key", key))
	_, err := fmt.Fprintf(writer, "Removed %s\n", key)
	return err
}

// RunPrefsDump prints every stored preference except the sensitive ones.
func RunPrefsDump(
	ctx context.Context,
	store prefsUseCase.SecurePreferenceStore,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	dump, err := store.Dump(ctx)
	if err != nil {
		return fmt.Errorf("failed to dump preferences: %w", err)
	}

	if format == "json" {
		return writeJSON(writer, dump)
	}

	keys := make([]string, 0, len(dump))
	for k := range dump {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(writer, "%s=%s\n", k, dump[k]); err != nil {
			return err
		}
	}
	return nil
}
