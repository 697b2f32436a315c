package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentvc/wcengine/internal/translate"
)

func TestUnmarshalAppliesDefaults(t *testing.T) {
	cfg, err := Unmarshal([]byte(``))
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminDirName, cfg.AdminDirName)
	assert.Equal(t, "native", cfg.DefaultEOL)
	assert.Equal(t, DefaultMaxFuzz, cfg.MaxFuzz)
	assert.True(t, cfg.RepairEOL)
}

func TestUnmarshalOverridesDefaults(t *testing.T) {
	cfg, err := Unmarshal([]byte(`
default_eol: fixed-LF
keywords: "Id Revision"
max_fuzz: 0
repair_eol: false
`))
	require.NoError(t, err)
	assert.Equal(t, "fixed-LF", cfg.DefaultEOL)
	assert.Equal(t, 0, cfg.MaxFuzz)
	assert.False(t, cfg.RepairEOL)
	assert.Equal(t, translate.EOLStyleLF, cfg.EOLStyle())
	assert.True(t, cfg.EnabledKeywords()[translate.KeywordID])
}

func TestUnmarshalRejectsUnknownEOLStyle(t *testing.T) {
	_, err := Unmarshal([]byte(`default_eol: bogus`))
	assert.Error(t, err)
}

func TestUnmarshalRejectsNegativeMaxFuzz(t *testing.T) {
	_, err := Unmarshal([]byte(`max_fuzz: -1`))
	assert.Error(t, err)
}

func TestUnmarshalRejectsBadShardWidth(t *testing.T) {
	_, err := Unmarshal([]byte(`pristine_shard_width: 9`))
	assert.Error(t, err)
}
