package crash

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, lines []string) ([]Report, []string) {
	t.Helper()

	var reports []Report
	var seen []string
	s := NewScanner(func(r Report) {
		reports = append(reports, r)
	}, WithPassthrough(func(line string) {
		seen = append(seen, line)
	}))

	input := strings.Join(lines, "\n")
	require.NoError(t, s.Run(context.Background(), strings.NewReader(input)))
	assert.Equal(t, StateScanning, s.State())
	return reports, seen
}

func TestScannerNoBanner(t *testing.T) {
	t.Parallel()

	reports, seen := scan(t, []string{"One", "Two", "Three"})
	assert.Empty(t, reports)
	assert.Equal(t, []string{"One", "Two", "Three"}, seen)
}

func TestScannerBannerOnly(t *testing.T) {
	t.Parallel()

	reports, _ := scan(t, []string{"Unhandled exception:"})
	require.Len(t, reports, 1)
	assert.False(t, reports[0].IsFatal)
	assert.Empty(t, reports[0].Message)
	assert.Empty(t, reports[0].StackTrace)
}

func TestScannerMessageWithoutTrace(t *testing.T) {
	t.Parallel()

	reports, _ := scan(t, []string{
		"Unhandled exception:",
		"The null object does not have a method 'accept'.",
	})
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Message, "null object")
	assert.Empty(t, reports[0].StackTrace)
}

func TestScannerMessageAndTrace(t *testing.T) {
	t.Parallel()

	reports, seen := scan(t, []string{
		"Unhandled exception:",
		"Uncaught Error: RangeError: value 90",
		"Stack Trace:",
		"#0 ... (dart:core-patch/string_patch.dart:230)",
	})
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0].Message, "RangeError")
	assert.NotContains(t, reports[0].Message, "Stack Trace:")
	assert.Contains(t, reports[0].StackTrace, "dart:core")
	assert.Len(t, seen, 4)
}

func TestScannerFrameWithoutMarker(t *testing.T) {
	t.Parallel()

	reports, _ := scan(t, []string{
		"Unhandled exception:",
		"Bad state: no element",
		"#0      List.first (dart:core-patch/growable_array.dart:332)",
		"#1      main (file:///tmp/main.dart:3:9)",
	})
	require.Len(t, reports, 1)
	assert.Equal(t, "Bad state: no element", reports[0].Message)
	assert.Equal(t,
		"#0      List.first (dart:core-patch/growable_array.dart:332)\n#1      main (file:///tmp/main.dart:3:9)",
		reports[0].StackTrace)
}

func TestScannerSecondBannerStartsNewReport(t *testing.T) {
	t.Parallel()

	reports, _ := scan(t, []string{
		"Unhandled exception:",
		"first",
		"Stack Trace:",
		"#0 a (a.dart:1)",
		"Unhandled exception:",
		"second",
	})
	require.Len(t, reports, 2)
	assert.Equal(t, "first", reports[0].Message)
	assert.Equal(t, "#0 a (a.dart:1)", reports[0].StackTrace)
	assert.Equal(t, "second", reports[1].Message)
	assert.Empty(t, reports[1].StackTrace)
}

func TestScannerIgnoresCarriageReturns(t *testing.T) {
	t.Parallel()

	var reports []Report
	s := NewScanner(func(r Report) { reports = append(reports, r) })
	require.NoError(t, s.Run(context.Background(), strings.NewReader("Unhandled exception:\r\nboom\r\n")))
	require.Len(t, reports, 1)
	assert.Equal(t, "boom", reports[0].Message)
}

func TestScannerReporterPanicIsContained(t *testing.T) {
	t.Parallel()

	s := NewScanner(func(Report) { panic("listener bug") })
	assert.NotPanics(t, func() {
		require.NoError(t, s.Run(context.Background(), strings.NewReader("Unhandled exception:\n")))
	})
}

func TestWriterPassthrough(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewScanner(func(Report) {}, WithWriterPassthrough(&buf))
	require.NoError(t, s.Run(context.Background(), strings.NewReader("a\nb")))
	assert.Equal(t, "a\nb\n", buf.String())
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "scanning", StateScanning.String())
	assert.Equal(t, "capturing-message", StateCapturingMessage.String())
	assert.Equal(t, "capturing-trace", StateCapturingTrace.String())
	assert.Equal(t, "State(9)", State(9).String())
}
