package output

import (
	"encoding/xml"
	"io"

	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// JUnitFormatter formats run results as JUnit XML, one test case per target.
type JUnitFormatter struct {
	writer io.Writer
}

// NewJUnitFormatter creates a new JUnit formatter.
func NewJUnitFormatter(w io.Writer) *JUnitFormatter {
	return &JUnitFormatter{
		writer: w,
	}
}

// JUnitTestSuites JUnit XML structures
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

type JUnitError struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// Format writes the run result as JUnit XML.
// Failed targets are failures, canceled targets are errors.
func (f *JUnitFormatter) Format(result *build.RunResult) error {
	name := result.ProductName
	if name == "" {
		name = "multibuild"
	}

	suite := JUnitTestSuite{
		Name:      name,
		Tests:     result.Summary.TotalTargets,
		Failures:  result.Summary.FailedTargets,
		Errors:    result.Summary.CanceledTargets,
		Skipped:   result.Summary.SkippedTargets,
		Time:      result.Duration.Seconds(),
		Timestamp: result.StartTime.UTC().Format("2006-01-02T15:04:05"),
	}

	for _, t := range result.Targets {
		c := JUnitTestCase{
			Name:      t.Target.String(),
			ClassName: t.Group.String(),
			Time:      t.Duration.Seconds(),
		}

		switch t.Status {
		case values.StatusFailed:
			c.Failure = &JUnitFailure{
				Message: firstLine(t.Message),
				Content: t.Message,
			}
		case values.StatusCanceled:
			c.Error = &JUnitError{
				Message: firstLine(t.Message),
				Content: t.Message,
			}
		case values.StatusSkipped:
			c.Skipped = &JUnitSkipped{
				Message: "not attempted after an earlier failure",
			}
		}

		suite.TestCases = append(suite.TestCases, c)
	}

	suites := JUnitTestSuites{
		Name:       "MultiBuild Run",
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Errors:     suite.Errors,
		Time:       suite.Time,
		TestSuites: []JUnitTestSuite{suite},
	}

	if _, err := f.writer.Write([]byte(xml.Header)); err != nil {
		return err
	}

	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}

	_, err := f.writer.Write([]byte("\n"))
	return err
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
