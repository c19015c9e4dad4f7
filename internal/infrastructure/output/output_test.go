package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rv-tools/multibuild/internal/application/ports"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// failedRun returns a run that built Android, failed on WebGL and skipped OSX.
func failedRun() *build.RunResult {
	r := build.NewRunResult(build.Selection{values.TargetAndroid, values.TargetWebGL, values.TargetStandaloneOSX})
	r.StartTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.ProductName = "Game"
	r.ProductVersion = "1.2.0"
	r.OriginalTarget = values.TargetIOS
	r.RestoreRequested = true

	android := r.Target(0)
	android.Status = values.StatusSucceeded
	android.OutputPath = "Builds/Android/Game.apk"
	android.Options = build.OptionForceEnableAssertions
	android.Message = "completed in 2s"
	android.Duration = build.ElapsedOf(2 * time.Second)

	webgl := r.Target(1)
	webgl.Status = values.StatusFailed
	webgl.OutputPath = "Builds/WebGL/Game"
	webgl.Message = "error CS1002: ; expected\nBuild halted"
	webgl.Duration = build.ElapsedOf(500 * time.Millisecond)

	r.Error = "build failed for target WebGL (#2)"
	r.Finalize(values.StatusFailed, 1)
	return r
}

func TestFormatterFactory_Create(t *testing.T) {
	factory := NewFormatterFactory()
	buf := &bytes.Buffer{}

	tests := []struct {
		name        string
		format      string
		options     ports.FormatterOptions
		wantErr     bool
		wantType    interface{}
		errContains string
	}{
		{name: "table format", format: "table", wantType: &TableFormatter{}},
		{name: "json format", format: "json", options: ports.FormatterOptions{Indent: true}, wantType: &JSONFormatter{}},
		{name: "yaml format", format: "yaml", wantType: &YAMLFormatter{}},
		{name: "junit format", format: "junit", wantType: &JUnitFormatter{}},
		{name: "sarif is not supported", format: "sarif", wantErr: true, errContains: "unknown format: sarif"},
		{name: "unknown format", format: "invalid", wantErr: true, errContains: "unknown format: invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter, err := factory.Create(tt.format, buf, tt.options)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, formatter)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, formatter)
		})
	}
}

func TestFormatterFactory_TableColor(t *testing.T) {
	factory := NewFormatterFactory()

	formatter, err := factory.Create("table", &bytes.Buffer{}, ports.FormatterOptions{EnableColor: false})
	require.NoError(t, err)
	assert.False(t, formatter.(*TableFormatter).EnableColor)

	formatter, err = factory.Create("table", &bytes.Buffer{}, ports.FormatterOptions{EnableColor: true})
	require.NoError(t, err)
	assert.True(t, formatter.(*TableFormatter).EnableColor)
}

func TestFormatterFactory_SupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"table", "json", "yaml", "junit"}, NewFormatterFactory().SupportedFormats())
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false

	require.NoError(t, f.Format(failedRun()))
	out := buf.String()

	assert.Contains(t, out, "Product:  Game (v1.2.0)")
	assert.Contains(t, out, "✓ 1. Android (Android)")
	assert.Contains(t, out, "  Output: Builds/Android/Game.apk")
	assert.Contains(t, out, "  Options: ForceEnableAssertions")
	assert.Contains(t, out, "✗ 2. WebGL (WebGL)")
	assert.Contains(t, out, "  Error:\n    error CS1002: ; expected\n    Build halted\n")
	assert.Contains(t, out, "⊘ 3. StandaloneOSX (Standalone)\n  Status: SKIPPED\n")
	assert.Contains(t, out, "Result:      FAILED")
	assert.Contains(t, out, "Succeeded: 1")
	assert.Contains(t, out, "Failed:    1")
	assert.Contains(t, out, "Skipped:   1")
	assert.Contains(t, out, "Active target: iOS (restored)")
	assert.NotContains(t, out, "\033[")
}

func TestTableFormatter_Color(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter(&buf).Format(failedRun()))
	assert.Contains(t, buf.String(), colorRed+"✗"+colorReset)
}

func TestTableFormatter_NoTargets(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false

	r := build.NewRunResult(nil)
	r.Finalize(values.StatusSucceeded, -1)
	require.NoError(t, f.Format(r))
	assert.Contains(t, buf.String(), "No targets built.")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf, true).Format(failedRun()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "failed", decoded["status"])
	assert.EqualValues(t, 1, decoded["failed_at"])
	assert.Equal(t, "iOS", decoded["original_target"])

	targets := decoded["targets"].([]interface{})
	require.Len(t, targets, 3)
	first := targets[0].(map[string]interface{})
	assert.Equal(t, "Android", first["target"])
	assert.Equal(t, "ForceEnableAssertions", first["options"])
	assert.EqualValues(t, 2000, first["duration_ms"])
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("}\n")))
}

func TestJSONFormatter_Compact(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf, false).Format(failedRun()))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(&buf).Format(failedRun()))

	var decoded build.RunResult
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, values.StatusFailed, decoded.Status)
	require.Len(t, decoded.Targets, 3)
	assert.Equal(t, build.OptionForceEnableAssertions, decoded.Targets[0].Options)
	assert.Equal(t, values.StatusSkipped, decoded.Targets[2].Status)
	assert.Contains(t, buf.String(), "duration_ms: 500\n")
	assert.Equal(t, 500*time.Millisecond, decoded.Targets[1].Duration.Duration)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJUnitFormatter(&buf).Format(failedRun()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(xml.Header)))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))

	assert.Equal(t, 3, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	require.Len(t, suites.TestSuites, 1)

	suite := suites.TestSuites[0]
	assert.Equal(t, "Game", suite.Name)
	assert.Equal(t, 1, suite.Skipped)
	require.Len(t, suite.TestCases, 3)

	assert.Equal(t, "Android", suite.TestCases[0].Name)
	assert.Nil(t, suite.TestCases[0].Failure)

	webgl := suite.TestCases[1]
	assert.Equal(t, "WebGL", webgl.ClassName)
	require.NotNil(t, webgl.Failure)
	assert.Equal(t, "error CS1002: ; expected", webgl.Failure.Message)
	assert.Contains(t, webgl.Failure.Content, "Build halted")

	assert.NotNil(t, suite.TestCases[2].Skipped)
}

func TestJUnitFormatter_Canceled(t *testing.T) {
	r := build.NewRunResult(build.Selection{values.TargetStandaloneLinux64})
	r.Target(0).Status = values.StatusCanceled
	r.Target(0).Message = "context canceled"
	r.Finalize(values.StatusCanceled, 0)

	var buf bytes.Buffer
	require.NoError(t, NewJUnitFormatter(&buf).Format(r))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))
	assert.Equal(t, "multibuild", suites.TestSuites[0].Name)
	assert.Equal(t, 1, suites.Errors)
	require.NotNil(t, suites.TestSuites[0].TestCases[0].Error)
	assert.Equal(t, "context canceled", suites.TestSuites[0].TestCases[0].Error.Message)
}
