package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/reglet-dev/composer/internal/application/dto"
)

// JUnitFormatter formats assembly reports as JUnit XML: one test case per
// component, failing when the component could not be assembled.
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
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

// Format writes the report as JUnit XML.
func (f *JUnitFormatter) Format(report *dto.AssemblyReport) error {
	failures := make(map[string][]dto.FailureReport)
	for _, failure := range report.Failures {
		failures[failure.Model] = append(failures[failure.Model], failure)
	}

	suite := JUnitTestSuite{
		Name: report.Profile,
		Time: report.Duration.Seconds(),
	}

	for _, m := range report.Models {
		if m.Kind != dto.KindComponent {
			continue
		}
		c := JUnitTestCase{
			Name:      m.Path,
			ClassName: m.Type,
		}
		if !m.Assembled {
			c.Failure = junitFailure(failures[m.Path])
			suite.Failures++
		}
		suite.Tests++
		suite.TestCases = append(suite.TestCases, c)
	}

	suites := JUnitTestSuites{
		Name:       "Composer Assembly",
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Time:       suite.Time,
		TestSuites: []JUnitTestSuite{suite},
	}

	_, err := f.writer.Write([]byte(xml.Header))
	if err != nil {
		return err
	}

	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}

	_, err = f.writer.Write([]byte("\n"))
	return err
}

func junitFailure(failures []dto.FailureReport) *JUnitFailure {
	if len(failures) == 0 {
		return &JUnitFailure{Message: "not assembled"}
	}
	var content strings.Builder
	for _, failure := range failures {
		if failure.Key != "" {
			fmt.Fprintf(&content, "Requirement: %s\n", failure.Key)
		}
		if len(failure.Cycle) > 0 {
			fmt.Fprintf(&content, "Cycle: %s\n", strings.Join(failure.Cycle, " -> "))
		}
	}
	return &JUnitFailure{
		Message: failures[0].Message,
		Content: content.String(),
	}
}
