package manifest

import (
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/arthur-debert/configsync/pkg/logging"
	"github.com/arthur-debert/configsync/pkg/types"
	"github.com/pelletier/go-toml/v2"
)

// LoadTeamConfig reads the model at path. A missing file means the managed
// directory has not been initialized.
func LoadTeamConfig(fs types.FS, path string) (*types.TeamConfig, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotInitialized, "no model found at %s, run 'configsync init' first", path).
				WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read %s", path)
	}

	cfg, err := ParseTeamConfig(data)
	if err != nil {
		if csErr, ok := err.(*errors.ConfigSyncError); ok {
			return nil, csErr.WithDetail("path", path)
		}
		return nil, err
	}

	logger := logging.GetLogger("manifest")
	logger.Debug().
		Str("path", path).
		Int("entries", len(cfg.Files)).
		Msg("Loaded team model")
	return cfg, nil
}

// ParseTeamConfig decodes a model document
func ParseTeamConfig(data []byte) (*types.TeamConfig, error) {
	var f teamConfigFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, parseError(err, errors.ErrConfigParse, "invalid team model")
	}
	return toModel(&f)
}

// EncodeTeamConfig renders the model in its on-disk form
func EncodeTeamConfig(cfg *types.TeamConfig) ([]byte, error) {
	data, err := toml.Marshal(fromModel(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to encode team model")
	}
	return data, nil
}

// SaveTeamConfig writes the model to path
func SaveTeamConfig(fs types.FS, path string, cfg *types.TeamConfig) error {
	data, err := EncodeTeamConfig(cfg)
	if err != nil {
		return err
	}
	return writeFile(fs, path, data)
}

// LoadState reads the machine state at path. A missing file is an empty state.
func LoadState(fs types.FS, path string) (*types.LocalState, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.LocalState{}, nil
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path)
	}

	var f stateFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, parseError(err, errors.ErrStateParse, "invalid machine state").WithDetail("path", path)
	}

	state := &types.LocalState{}
	for _, role := range f.Roles {
		state.AddRole(role)
	}
	return state, nil
}

// SaveState writes the machine state to path, creating its directory
func SaveState(fs types.FS, path string, state *types.LocalState) error {
	data, err := toml.Marshal(stateFile{Roles: nonNil(state.Roles)})
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode machine state")
	}
	return writeFile(fs, path, data)
}

func writeFile(fs types.FS, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory for %s", path)
	}
	if err := fs.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", path)
	}
	return nil
}

func parseError(err error, code errors.ErrorCode, message string) *errors.ConfigSyncError {
	wrapped := errors.Wrap(err, code, message)
	var decodeErr *toml.DecodeError
	if stderrors.As(err, &decodeErr) {
		row, col := decodeErr.Position()
		wrapped = wrapped.WithDetail("line", row).WithDetail("column", col)
	}
	return wrapped
}
