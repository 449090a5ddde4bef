package engine

import (
	"testing"
)

// benchTargets instruments every method of the sample class except the constructor.
var benchTargets = targets("m", "spin", "path")

func benchmarkRewrite(b *testing.B, s Strategy, instrumented bool) {
	data := buildClass(b, sampleDefs()...)
	cfg := Config{Strategy: s, Targets: benchTargets, Capabilities: map[string][]string{"spin": {"java/lang/Runnable"}}}
	e := New(cfg)
	if instrumented {
		out, err := e.Rewrite(data)
		if err != nil {
			b.Fatal(err)
		}
		data = out.Bytes
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Rewrite(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRewrite(b *testing.B) {
	for s := StrategyBlindInsert; s <= StrategyWrap; s++ {
		b.Run(s.String()+"/fresh", func(b *testing.B) { benchmarkRewrite(b, s, false) })
		if s == StrategyBlindInsert {
			continue
		}
		b.Run(s.String()+"/instrumented", func(b *testing.B) { benchmarkRewrite(b, s, true) })
	}
}

func BenchmarkMatch(b *testing.B) {
	data := buildClass(b, sampleDefs()...)
	out, err := New(Config{Strategy: StrategyBlindInsert, Targets: benchTargets}).Rewrite(data)
	if err != nil {
		b.Fatal(err)
	}
	cf := parse(b, out.Bytes)
	m := method(b, cf, "spin")
	p := checkPattern(New(Config{}).check)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ok, err := matches(cf, m, p)
		if err != nil || !ok {
			b.Fatalf("matches = %v, %v", ok, err)
		}
	}
}
