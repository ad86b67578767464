package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestBindFlagsLoadViper(t *testing.T) {
	defer viper.Reset()

	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(home, "config", "config.toml"),
		[]byte("log_level = \"debug\"\n"), 0644))

	var got string
	cmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			got = viper.GetString("log_level")
			return nil
		},
	}
	cmd = PrepareBaseCmd(cmd, "ESCROWTEST", home)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "debug", got)
}

func TestBindFlagsMissingConfig(t *testing.T) {
	defer viper.Reset()

	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd = PrepareBaseCmd(cmd, "ESCROWTEST", t.TempDir())
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
}

func TestConcatCobraCmdFuncs(t *testing.T) {
	var calls []int
	f := concatCobraCmdFuncs(
		func(*cobra.Command, []string) error { calls = append(calls, 1); return nil },
		nil,
		func(*cobra.Command, []string) error { calls = append(calls, 2); return nil },
	)
	require.NoError(t, f(nil, nil))
	require.Equal(t, []int{1, 2}, calls)
}
