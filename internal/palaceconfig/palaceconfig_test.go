package palaceconfig

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/palacegen/internal/config"
	"github.com/vk/palacegen/internal/profile"
	"github.com/vk/palacegen/internal/validate"
	"github.com/zclconf/go-cty/cty"
)

func sealed(t *testing.T, m *config.Model) *validate.Validated {
	t.Helper()
	mesh := filepath.Join(t.TempDir(), "mesh.msh")
	require.NoError(t, os.WriteFile(mesh, nil, 0o644))
	stat := func(string) (fs.FileInfo, error) { return os.Stat(mesh) }

	res := validate.Validate(m, profile.Default(), validate.WithStat(stat))
	require.True(t, res.Valid(), "unexpected errors: %v", res.Errors())
	return res.Validated()
}

func cavityModel() *config.Model {
	return &config.Model{
		ProjectName: "demo",
		MeshPath:    `C:\proj\mesh\cavity.msh`,
		Materials: []config.Material{
			{Region: "cavity", Attributes: []int{1}, Properties: map[string]cty.Value{
				"permittivity": cty.NumberFloatVal(2.08),
				"loss_tan":     cty.NumberFloatVal(4e-4),
			}},
			{Region: "wall", Attributes: []int{2, 3}},
		},
		BoundaryConditions: []config.BoundaryCondition{
			{Tag: "wall", Type: "pec"},
			{Tag: "cavity", Type: "pec", Params: map[string]cty.Value{
				"attributes": cty.TupleVal([]cty.Value{cty.NumberIntVal(7)}),
			}},
			{Tag: "cavity", Type: "lumped_port", Params: map[string]cty.Value{
				"attributes": cty.TupleVal([]cty.Value{cty.NumberIntVal(4)}),
				"r":          cty.NumberIntVal(50),
			}},
			{Tag: "cavity", Type: "lumped_port", Params: map[string]cty.Value{
				"attributes": cty.TupleVal([]cty.Value{cty.NumberIntVal(5)}),
			}},
			{Tag: "wall", Type: "impedance", Params: map[string]cty.Value{"rs": cty.NumberFloatVal(0.5)}},
		},
		SolverOptions: map[string]cty.Value{
			"type":            cty.StringVal("Driven"),
			"tolerance":       cty.NumberFloatVal(1e-8),
			"order":           cty.NumberIntVal(2),
			"frequency_range": cty.TupleVal([]cty.Value{cty.NumberIntVal(2), cty.NumberFloatVal(32.5)}),
		},
		Resources:  config.Resources{Nodes: 1, CoresPerNode: 4, WallTime: "01:00:00", Memory: "4G"},
		RemoteRoot: "/scratch/demo",
	}
}

func TestBuild(t *testing.T) {
	doc := Build(sealed(t, cavityModel()), profile.Default())

	want := Document{
		"Problem": map[string]any{"Type": "Driven", "Output": "postpro"},
		"Model":   map[string]any{"Mesh": "/scratch/demo/cavity.msh"},
		"Domains": map[string]any{"Materials": []any{
			map[string]any{"Attributes": []any{1}, "LossTan": 4e-4, "Permittivity": 2.08},
			map[string]any{"Attributes": []any{2, 3}},
		}},
		"Boundaries": map[string]any{
			"PEC": map[string]any{"Attributes": []any{2, 3, int64(7)}},
			"LumpedPort": []any{
				map[string]any{"Index": 1, "Attributes": []any{int64(4)}, "R": int64(50)},
				map[string]any{"Index": 2, "Attributes": []any{int64(5)}},
			},
			"Impedance": []any{
				map[string]any{"Attributes": []any{2, 3}, "Rs": 0.5},
			},
		},
		"Solver": map[string]any{
			"Order":  int64(2),
			"Linear": map[string]any{"Tol": 1e-8},
			"Driven": map[string]any{"MinFreq": 2.0, "MaxFreq": 32.5},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Defaults(t *testing.T) {
	m := cavityModel()
	m.SolverOptions = nil
	doc := Build(sealed(t, m), profile.Default())

	typ, ok := doc.Get("Problem.Type")
	require.True(t, ok)
	assert.Equal(t, DefaultProblemType, typ)

	_, ok = doc.Get("Solver")
	assert.False(t, ok)
	_, ok = doc.Get("Problem.Type.Nested")
	assert.False(t, ok)
}

func TestBuild_MergesObjectBoundaries(t *testing.T) {
	m := cavityModel()
	m.BoundaryConditions = []config.BoundaryCondition{
		{Tag: "cavity", Type: "absorbing", Params: map[string]cty.Value{"order": cty.NumberIntVal(2)}},
		{Tag: "wall", Type: "absorbing"},
	}
	doc := Build(sealed(t, m), profile.Default())

	got, ok := doc.Get("Boundaries.Absorbing")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"Attributes": []any{1, 2, 3}, "Order": int64(2)}, got)
}

func TestBuild_PanicsOnDraft(t *testing.T) {
	assert.Panics(t, func() { Build(&validate.Validated{}, profile.Default()) })
}

func TestMarshal_DeterministicAndSchemaValid(t *testing.T) {
	v := sealed(t, cavityModel())

	first, err := Marshal(Build(v, profile.Default()))
	require.NoError(t, err)
	second, err := Marshal(Build(v, profile.Default()))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.True(t, len(first) > 0 && first[len(first)-1] == '\n', "output ends with a newline")
	assert.Contains(t, string(first), "\n  \"Boundaries\": {\n")
	require.NoError(t, CheckSchema(first))
}

func TestCheckSchema(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "minimal",
			doc:  `{"Problem":{"Type":"Eigenmode"},"Model":{"Mesh":"/m.msh"},"Domains":{"Materials":[{"Attributes":[1]}]},"Boundaries":{}}`,
		},
		{
			name:    "unknown problem type",
			doc:     `{"Problem":{"Type":"Static"},"Model":{"Mesh":"/m.msh"},"Domains":{"Materials":[{"Attributes":[1]}]},"Boundaries":{}}`,
			wantErr: "does not match schema",
		},
		{
			name:    "missing materials",
			doc:     `{"Problem":{"Type":"Driven"},"Model":{"Mesh":"/m.msh"},"Domains":{"Materials":[]},"Boundaries":{}}`,
			wantErr: "does not match schema",
		},
		{
			name:    "zero attribute",
			doc:     `{"Problem":{"Type":"Driven"},"Model":{"Mesh":"/m.msh"},"Domains":{"Materials":[{"Attributes":[0]}]},"Boundaries":{}}`,
			wantErr: "does not match schema",
		},
		{
			name:    "not json",
			doc:     `{"Problem":`,
			wantErr: "invalid JSON",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckSchema([]byte(tc.doc))
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
