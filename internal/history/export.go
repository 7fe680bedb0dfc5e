// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// exportLimit bounds a full-archive export.
const exportLimit = 100000

// ExportYAML writes every archived run, with sources, as a YAML stream.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	runs, err := s.exportRuns(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(runs)
	if err != nil {
		return fmt.Errorf("marshaling runs: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// ExportJSON writes every archived run, with sources, as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	runs, err := s.exportRuns(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling runs: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

func (s *Store) exportRuns(ctx context.Context) ([]types.RunRecord, error) {
	summaries, err := s.List(ctx, exportLimit)
	if err != nil {
		return nil, err
	}

	runs := make([]types.RunRecord, 0, len(summaries))
	for _, sum := range summaries {
		rec, err := s.Show(ctx, sum.ID)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	return runs, nil
}
