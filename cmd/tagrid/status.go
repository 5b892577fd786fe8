package main

import (
	"encoding/json"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the internal state of the board and its storage as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, readOnlyView())
		if err != nil {
			return err
		}
		defer s.Close()

		out := map[string]any{
			s.svc.ComponentType(): s.svc.State(),
		}
		if c, ok := s.repo.(introspection.Component); ok {
			if st, ok := s.repo.(introspection.Introspectable); ok {
				out[c.ComponentType()] = st.State()
			}
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
