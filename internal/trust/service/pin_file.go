package service

import (
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/allisson/trustcore/internal/errors"
	trustDomain "github.com/allisson/trustcore/internal/trust/domain"
)

// pinFile is the YAML layout:
//
//	pins:
//	  api.example.com:
//	    - sha256/...
//	    - sha256/...
type pinFile struct {
	Pins map[string][]string `yaml:"pins"`
}

// ParsePinSet decodes a YAML pin file.
func ParsePinSet(data []byte) (*trustDomain.PinSet, error) {
	var file pinFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed pin file: "+err.Error())
	}
	return trustDomain.NewPinSet(file.Pins)
}

// LoadPinSetFile reads and decodes path. An empty path yields an empty set.
func LoadPinSetFile(path string) (*trustDomain.PinSet, error) {
	if path == "" {
		return trustDomain.NewPinSet(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read pin file")
	}
	return ParsePinSet(data)
}
