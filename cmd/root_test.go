package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestBindFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "bind"}
	cmd.Flags().String("archive-dir", "", "")

	assert.NoError(t, bindFlags(cmd, map[string]string{"test_archive_dir": "archive-dir"}))

	err := bindFlags(cmd, map[string]string{"test_missing": "no-such-flag"})
	assert.ErrorContains(t, err, "--no-such-flag")
}

func TestProcessFlagsAreBound(t *testing.T) {
	assert.NoError(t, bindErr)
	assert.NotNil(t, processCmd.Flags().Lookup("output-dir"))
	assert.NotNil(t, processCmd.Flags().Lookup("pdf-backend"))
}
