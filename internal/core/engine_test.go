package core

import (
	"context"
	"errors"
	"testing"
)

func TestRunEngine(t *testing.T) {
	d := timestampDataset("2005-01-01 00:00:00", "2005-01-01 00:01:00")
	spec, err := BuildSpec(d, StrategyTimestamp)
	if err != nil {
		t.Fatalf("BuildSpec: %v", err)
	}

	tests := []struct {
		name       string
		engine     EngineFunc
		wantErr    func(error) bool
		wantMsgCol int
	}{
		{
			name: "ok resolves column names",
			engine: func(_ context.Context, _ *SpecDocument, rows [][]string) (*EngineResult, error) {
				rows[0][0] = "mutated"
				return &EngineResult{
					ProcessedOK: true,
					Rows:        make([]StdRow, len(rows)),
					Messages:    []EngineMessage{{Row: 1, ColumnName: "LAT", Text: "x"}},
				}, nil
			},
			wantMsgCol: 3,
		},
		{
			name: "engine error",
			engine: func(context.Context, *SpecDocument, [][]string) (*EngineResult, error) {
				return nil, errors.New("cannot parse")
			},
			wantErr: isEngineProcessing,
		},
		{
			name: "panic",
			engine: func(context.Context, *SpecDocument, [][]string) (*EngineResult, error) {
				panic("index out of range")
			},
			wantErr: isEngineProcessing,
		},
		{
			name: "not processed",
			engine: func(context.Context, *SpecDocument, [][]string) (*EngineResult, error) {
				return &EngineResult{ProcessedOK: false}, nil
			},
			wantErr: isEngineProcessing,
		},
		{
			name: "row count mismatch",
			engine: func(context.Context, *SpecDocument, [][]string) (*EngineResult, error) {
				return &EngineResult{ProcessedOK: true, Rows: make([]StdRow, 1)}, nil
			},
			wantErr: func(err error) bool {
				var se *StructuralError
				return errors.As(err, &se)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := RunEngine(context.Background(), tt.engine, spec, d)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("unexpected error %v", err)
				}
				if res != nil {
					t.Error("result should be nil on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("RunEngine: %v", err)
			}
			if d.Rows[0][0] != "2005-01-01 00:00:00" {
				t.Error("engine mutated the dataset rows")
			}
			if res.Messages[0].Column != tt.wantMsgCol {
				t.Errorf("resolved column = %d, want %d", res.Messages[0].Column, tt.wantMsgCol)
			}
		})
	}
}

func isEngineProcessing(err error) bool {
	var ep *EngineProcessingError
	return errors.As(err, &ep)
}
