package testbed

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
	"github.com/wippyai/entitle/errors"
	"github.com/wippyai/entitle/linkage"
	"github.com/wippyai/entitle/rewrite"
)

const provider = "java/nio/file/spi/FileSystemProvider"

func traceOf(t *testing.T, data []byte, name string) string {
	t.Helper()
	cf, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, m := range cf.Methods {
		if m.Name == name {
			text, err := bytecode.Trace(cf, m)
			if err != nil {
				t.Fatalf("trace %s: %v", name, err)
			}
			return text
		}
	}
	t.Fatalf("method %s not found", name)
	return ""
}

func TestBuild_RoundTrip(t *testing.T) {
	data, err := Build(FileAccess("com/example/FileAccess"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cf.Name() != "com/example/FileAccess" || cf.SuperName() != "java/lang/Object" {
		t.Errorf("class %s extends %s", cf.Name(), cf.SuperName())
	}
	if len(cf.Methods) != 4 {
		t.Fatalf("got %d methods, want 4", len(cf.Methods))
	}
	again, err := cf.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("re-encoding changed the class")
	}
	if text := traceOf(t, data, "open"); text != "" {
		t.Errorf("native method has a body:\n%s", text)
	}
}

func TestFileAccess_Strategies(t *testing.T) {
	strategies := []rewrite.Strategy{
		rewrite.StrategyTwoPass,
		rewrite.StrategySinglePass,
		rewrite.StrategyAnnotate,
		rewrite.StrategyWrap,
	}
	data, err := Build(FileAccess("com/example/FileAccess"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			r, err := rewrite.New(rewrite.Config{Targets: []string{"m", "spin(I)I"}, Strategy: s})
			if err != nil {
				t.Fatalf("new rewriter: %v", err)
			}
			once, err := r.Rewrite(data)
			if err != nil {
				t.Fatalf("rewrite: %v", err)
			}
			if len(once.Methods) != 2 {
				t.Errorf("instrumented %v, want m and spin", once.Methods)
			}
			for _, m := range []string{"m", "spin"} {
				ok, err := r.Instrumented(once.Bytes, m)
				if err != nil || !ok {
					t.Errorf("Instrumented(%s) = %v, %v", m, ok, err)
				}
			}

			twice, err := r.Rewrite(once.Bytes)
			if err != nil {
				t.Fatalf("second rewrite: %v", err)
			}
			if !bytes.Equal(once.Bytes, twice.Bytes) || len(twice.Methods) != 0 {
				t.Errorf("second rewrite instrumented %v", twice.Methods)
			}
		})
	}
}

func TestFileAccess_BlindInsertStacks(t *testing.T) {
	data, err := Build(FileAccess("com/example/FileAccess"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	owner := rewrite.DefaultCheckSymbols().Owner
	for want := 1; want <= 3; want++ {
		out, err := rewrite.Rewrite(data, []string{"m"}, rewrite.StrategyBlindInsert)
		if err != nil {
			t.Fatalf("rewrite %d: %v", want, err)
		}
		data = out.Bytes
		if got := strings.Count(traceOf(t, data, "m"), "INVOKESTATIC "+owner); got != want {
			t.Errorf("after %d rewrites: %d checks", want, got)
		}
	}
}

func TestFileAccess_NativeBridge(t *testing.T) {
	data, err := Build(FileAccess("com/example/FileAccess"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := rewrite.Rewrite(data, []string{"open"}, rewrite.StrategyTwoPass); !errors.IsUnsupportedShape(err) {
		t.Fatalf("err = %v, want unsupported shape", err)
	}

	out, err := rewrite.Transform(data, rewrite.Config{
		Targets:      []string{"open"},
		Strategy:     rewrite.StrategyTwoPass,
		NativeBridge: "org/elasticsearch/Natives",
	})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if !strings.Contains(traceOf(t, out.Bytes, "open"), "INVOKESTATIC org/elasticsearch/Natives.open") {
		t.Error("bridge stub does not call the bridge")
	}
}

// TestInheritance_EndToEnd rewrites two classes, links their call sites against a
// hierarchy built from the rewritten bytes, and runs the checks.
func TestInheritance_EndToEnd(t *testing.T) {
	cfg := rewrite.Config{
		Capabilities: map[string][]string{"m": {provider}},
		Strategy:     rewrite.StrategyInheritance,
	}
	classes := map[string]Class{
		"com/example/LocalFS": {Name: "com/example/LocalFS", Super: provider, Methods: FileAccess("").Methods[:2]},
		"com/example/Plain":   {Name: "com/example/Plain", Methods: FileAccess("").Methods[:2]},
	}

	hierarchy := linkage.NewStaticHierarchy()
	var sites []linkage.Site
	for _, c := range classes {
		data, err := Build(c)
		if err != nil {
			t.Fatalf("build %s: %v", c.Name, err)
		}
		out, err := rewrite.Transform(data, cfg)
		if err != nil {
			t.Fatalf("transform %s: %v", c.Name, err)
		}
		if err := hierarchy.AddClass(out.Bytes); err != nil {
			t.Fatalf("hierarchy %s: %v", c.Name, err)
		}
		found, err := linkage.Discover(out.Bytes, rewrite.DefaultRuntime().Bootstrap())
		if err != nil {
			t.Fatalf("discover %s: %v", c.Name, err)
		}
		sites = append(sites, found...)
	}
	if len(sites) != 2 {
		t.Fatalf("found %d sites, want 2", len(sites))
	}

	linker := linkage.NewLinker(linkage.Options{
		Hierarchy: hierarchy,
		Checker:   &linkage.PolicyChecker{Allowed: map[string][]string{"com/example/Trusted": {"*"}}},
	})
	for _, site := range sites {
		target := linker.Link(site)
		capable := site.Key.Owner == "com/example/LocalFS"
		if target.Noop == capable {
			t.Errorf("%s: noop = %v", site.Key, target.Noop)
		}

		err := linker.Invoke(site, "com/example/Untrusted")
		if capable && !errors.IsDenied(err) {
			t.Errorf("%s: untrusted caller err = %v, want denied", site.Key, err)
		}
		if !capable && err != nil {
			t.Errorf("%s: no-op check failed: %v", site.Key, err)
		}
		if err := linker.Invoke(site, "com/example/Trusted"); err != nil {
			t.Errorf("%s: trusted caller: %v", site.Key, err)
		}
	}
	if stats := linker.Stats(); stats.Resolutions != 2 {
		t.Errorf("Resolutions = %d, want 2", stats.Resolutions)
	}
}

func TestConcurrentRewrites(t *testing.T) {
	r, err := rewrite.New(rewrite.Config{Targets: []string{"m", "spin"}, Strategy: rewrite.StrategySinglePass})
	if err != nil {
		t.Fatalf("new rewriter: %v", err)
	}
	data, err := Build(FileAccess("com/example/FileAccess"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want, err := r.Rewrite(data)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Rewrite(data)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(got.Bytes, want.Bytes) {
				errs <- errors.InvalidData(errors.PhaseRewrite, nil, "concurrent rewrite differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestInvalidClass(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"bad magic": {0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 52},
		"truncated": {0xca, 0xfe, 0xba, 0xbe, 0, 0},
	} {
		if _, err := rewrite.Rewrite(data, []string{"m"}, rewrite.StrategyTwoPass); !errors.IsStructural(err) {
			t.Errorf("%s: err = %v, want structural", name, err)
		}
	}
}

func BenchmarkFileAccess_SinglePass(b *testing.B) {
	data, err := Build(FileAccess("com/example/FileAccess"))
	if err != nil {
		b.Fatalf("build: %v", err)
	}
	r, err := rewrite.New(rewrite.Config{Targets: []string{"m", "spin"}, Strategy: rewrite.StrategySinglePass})
	if err != nil {
		b.Fatalf("new rewriter: %v", err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := r.Rewrite(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkInheritance_Link(b *testing.B) {
	hierarchy := linkage.NewStaticHierarchy()
	hierarchy.Add("com/example/LocalFS", provider)
	site := linkage.Site{
		Key:          linkage.SiteKey{Owner: "com/example/LocalFS", Method: "m()V"},
		Name:         "m",
		Check:        rewrite.DefaultRuntime().CheckHandle(),
		Capabilities: []string{provider},
	}
	linker := linkage.NewLinker(linkage.Options{Hierarchy: hierarchy})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		linker.Link(site)
	}
}
