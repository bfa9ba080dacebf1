package errors

import (
	"fmt"
	"testing"
)

func templateDiagnostic(i int) BuildError {
	severity := ErrorSeverityError
	if i%3 == 0 {
		severity = ErrorSeverityWarning
	}
	return BuildError{
		Component: fmt.Sprintf("Component%d", i%20),
		File:      fmt.Sprintf("/src/Component%d.vue", i%20),
		Message:   "\n  Error compiling template:\n\n  <div><p></div>\n\n  - tag <p> has no matching end tag.\n",
		Severity:  severity,
	}
}

func BenchmarkErrorCollector_Add(b *testing.B) {
	collector := NewErrorCollector()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		collector.Add(templateDiagnostic(i))
	}
}

// One build checks every component's collector before writing its modules.
func BenchmarkErrorCollector_HasErrors(b *testing.B) {
	collector := NewErrorCollector()
	for i := 0; i < 200; i++ {
		collector.Add(templateDiagnostic(i * 3))
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_ = collector.HasErrors()
		_ = collector.Warnings()
	}
}

func BenchmarkErrorCollector_Summary(b *testing.B) {
	collector := NewErrorCollector()
	for i := 0; i < 50; i++ {
		collector.Add(templateDiagnostic(i))
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_ = collector.Summary()
	}
}

func BenchmarkErrorCollector_Concurrent(b *testing.B) {
	collector := NewErrorCollector()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			collector.Add(templateDiagnostic(i))
			if i%10 == 0 {
				_ = collector.HasErrors()
			}
			i++
		}
	})
}
