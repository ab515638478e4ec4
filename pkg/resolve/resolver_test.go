package resolve

import (
	"context"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	vuerrors "github.com/vup-linux/vuru/pkg/errors"
	"github.com/vup-linux/vuru/pkg/template"
	"github.com/vup-linux/vuru/pkg/vup"
)

// fakeTemplates is a scripted TemplateFetcher that records which
// templates were fetched.
type fakeTemplates struct {
	mu        sync.Mutex
	templates map[string]*template.Template
	errs      map[string]error
	calls     []string
}

func (f *fakeTemplates) FetchParsed(_ context.Context, _, name string, _ bool) (*template.Template, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	if tpl, ok := f.templates[name]; ok {
		return tpl, nil
	}
	return nil, vuerrors.New(vuerrors.ErrCodeNotFound, "no template for %s", name)
}

func (f *fakeTemplates) fetched(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func newTemplate(name string, depends ...string) *template.Template {
	return &template.Template{Name: name, Version: "1.0", Revision: 1, Depends: depends}
}

// communityFixture wires probes where every key of deps is a community
// binary for x86_64 whose template lists the mapped runtime depends.
func communityFixture(deps map[string][]string) (*fakeSystem, *fakeIndex, *fakeTemplates) {
	idx := &fakeIndex{entries: map[string]vup.PackageMetadata{}}
	tpls := &fakeTemplates{templates: map[string]*template.Template{}}
	for name, d := range deps {
		idx.entries[name] = binaryEntry(name, "apps", "1.0_1", "x86_64", "https://example.com/apps-x86_64-current")
		tpls.templates[name] = newTemplate(name, d...)
	}
	return &fakeSystem{}, idx, tpls
}

func testResolver(sys *fakeSystem, idx *fakeIndex, tpls *fakeTemplates) *Resolver {
	return NewResolver(sys, idx, tpls, log.New(io.Discard))
}

func installNames(res *Resolution) []string {
	names := make([]string, 0, len(res.ToInstall))
	for _, p := range res.ToInstall {
		names = append(names, p.Name)
	}
	return names
}

func TestResolveSinglePackage(t *testing.T) {
	sys, idx, tpls := communityFixture(map[string][]string{"htop": nil})
	r := testResolver(sys, idx, tpls)

	res, err := r.Resolve(context.Background(), "htop", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Complete() {
		t.Fatalf("resolution incomplete: missing %v", res.Missing)
	}
	if res.Arch != "x86_64" {
		t.Errorf("arch = %q, want x86_64", res.Arch)
	}
	if len(res.ToInstall) != 1 || res.ToInstall[0].Name != "htop" {
		t.Fatalf("toInstall = %+v, want [htop]", res.ToInstall)
	}
	got := res.ToInstall[0]
	if got.Source != SourceCommunityBinary || got.Depth != 0 || got.RepoURL == "" {
		t.Errorf("unexpected entry: %+v", got)
	}
}

func TestResolveWithDependency(t *testing.T) {
	sys, idx, tpls := communityFixture(map[string][]string{
		"app":    {"libfoo"},
		"libfoo": nil,
	})
	r := testResolver(sys, idx, tpls)

	res, err := r.Resolve(context.Background(), "app", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Complete() {
		t.Fatalf("resolution incomplete: missing %v", res.Missing)
	}
	if names := installNames(res); !reflect.DeepEqual(names, []string{"app", "libfoo"}) {
		t.Fatalf("toInstall = %v, want [app libfoo]", names)
	}
	if res.ToInstall[0].Depth != 0 || res.ToInstall[1].Depth != 1 {
		t.Errorf("depths = %d,%d, want 0,1", res.ToInstall[0].Depth, res.ToInstall[1].Depth)
	}
	wantEdges := []Edge{{From: "app", To: "libfoo"}}
	if !reflect.DeepEqual(res.Edges, wantEdges) {
		t.Errorf("edges = %v, want %v", res.Edges, wantEdges)
	}
}

func TestResolveMissingDependency(t *testing.T) {
	sys, idx, tpls := communityFixture(map[string][]string{"app": {"ghost"}})
	r := testResolver(sys, idx, tpls)

	res, err := r.Resolve(context.Background(), "app", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Complete() {
		t.Fatal("resolution with a missing dependency reported complete")
	}
	if !reflect.DeepEqual(res.Missing, []string{"ghost"}) {
		t.Errorf("missing = %v, want [ghost]", res.Missing)
	}
	if names := installNames(res); !reflect.DeepEqual(names, []string{"app"}) {
		t.Errorf("toInstall = %v, want [app]", names)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %v, want one entry", res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Name != "ghost" || d.Code != vuerrors.ErrCodeDependencyNotFound {
		t.Errorf("diagnostic = %+v, want ghost/%s", d, vuerrors.ErrCodeDependencyNotFound)
	}
}

func TestResolveTargetNotFound(t *testing.T) {
	r := testResolver(&fakeSystem{}, &fakeIndex{}, &fakeTemplates{})

	res, err := r.Resolve(context.Background(), "ghost", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(res.Missing, []string{"ghost"}) {
		t.Fatalf("missing = %v, want [ghost]", res.Missing)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != vuerrors.ErrCodePackageNotFound {
		t.Errorf("diagnostics = %v, want one %s", res.Diagnostics, vuerrors.ErrCodePackageNotFound)
	}
}

func TestResolveCycle(t *testing.T) {
	sys, idx, tpls := communityFixture(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})
	r := testResolver(sys, idx, tpls)

	res, err := r.Resolve(context.Background(), "a", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if names := installNames(res); !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Fatalf("toInstall = %v, want [a b]", names)
	}
	if tpls.fetched("a") != 1 || tpls.fetched("b") != 1 {
		t.Errorf("templates fetched a=%d b=%d, want 1 and 1", tpls.fetched("a"), tpls.fetched("b"))
	}
	wantEdges := []Edge{{From: "a", To: "b"}, {From: "b", To: "a"}}
	if !reflect.DeepEqual(res.Edges, wantEdges) {
		t.Errorf("edges = %v, want %v", res.Edges, wantEdges)
	}
}

func TestResolveDiamond(t *testing.T) {
	sys, idx, tpls := communityFixture(map[string][]string{
		"app":  {"liba", "libb"},
		"liba": {"libc"},
		"libb": {"libc"},
		"libc": nil,
	})
	r := testResolver(sys, idx, tpls)

	res, err := r.Resolve(context.Background(), "app", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if names := installNames(res); !reflect.DeepEqual(names, []string{"app", "liba", "libb", "libc"}) {
		t.Fatalf("toInstall = %v, want [app liba libb libc]", names)
	}
	if n := tpls.fetched("libc"); n != 1 {
		t.Errorf("libc fetched %d times, want once", n)
	}
	if res.ToInstall[3].Depth != 2 {
		t.Errorf("libc depth = %d, want 2", res.ToInstall[3].Depth)
	}
	// Both edges into libc are recorded even though it is classified
	// only once.
	wantEdges := []Edge{
		{From: "app", To: "liba"},
		{From: "app", To: "libb"},
		{From: "liba", To: "libc"},
		{From: "libb", To: "libc"},
	}
	if !reflect.DeepEqual(res.Edges, wantEdges) {
		t.Errorf("edges = %v, want %v", res.Edges, wantEdges)
	}
}

func TestResolveInstalledDependencyNotExpanded(t *testing.T) {
	sys, idx, tpls := communityFixture(map[string][]string{"app": {"zlib"}})
	sys.installed = map[string]bool{"zlib": true}
	r := testResolver(sys, idx, tpls)

	res, err := r.Resolve(context.Background(), "app", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(res.Satisfied, []string{"zlib"}) {
		t.Errorf("satisfied = %v, want [zlib]", res.Satisfied)
	}
	if n := tpls.fetched("zlib"); n != 0 {
		t.Errorf("installed dependency fetched %d times, want 0", n)
	}
}

func TestResolveSystemRepoDependency(t *testing.T) {
	sys, idx, tpls := communityFixture(map[string][]string{"app": {"ncurses"}})
	sys.sysRepo = map[string]string{"ncurses": "6.5_1"}
	r := testResolver(sys, idx, tpls)

	res, err := r.Resolve(context.Background(), "app", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if names := installNames(res); !reflect.DeepEqual(names, []string{"app", "ncurses"}) {
		t.Fatalf("toInstall = %v, want [app ncurses]", names)
	}
	dep := res.ToInstall[1]
	if dep.Source != SourceSystemRepo || dep.Version != "6.5_1" || dep.RepoURL != "" {
		t.Errorf("unexpected system entry: %+v", dep)
	}
	if n := tpls.fetched("ncurses"); n != 0 {
		t.Errorf("system dependency fetched %d times, want 0", n)
	}
}

func TestResolveTemplateFailureNonFatal(t *testing.T) {
	sys, idx, tpls := communityFixture(map[string][]string{"app": {"libfoo"}})
	tpls.errs = map[string]error{
		"app": vuerrors.New(vuerrors.ErrCodeNetwork, "fetch failed"),
	}
	r := testResolver(sys, idx, tpls)

	res, err := r.Resolve(context.Background(), "app", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if names := installNames(res); !reflect.DeepEqual(names, []string{"app"}) {
		t.Fatalf("toInstall = %v, want [app]", names)
	}
	if !res.Complete() {
		t.Error("template failure marked the resolution incomplete")
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != vuerrors.ErrCodeTemplateUnavailable {
		t.Fatalf("diagnostics = %v, want one %s", res.Diagnostics, vuerrors.ErrCodeTemplateUnavailable)
	}
	if res.Diagnostics[0].Name != "app" {
		t.Errorf("diagnostic package = %q, want app", res.Diagnostics[0].Name)
	}
}

func TestResolveBuildDeps(t *testing.T) {
	deps := map[string][]string{
		"app":      {"librun"},
		"librun":   nil,
		"libbuild": nil,
		"tool":     nil,
	}

	t.Run("default skips build deps", func(t *testing.T) {
		sys, idx, tpls := communityFixture(deps)
		tpls.templates["app"].MakeDepends = []string{"libbuild"}
		tpls.templates["app"].HostMakeDepends = []string{"tool"}
		r := testResolver(sys, idx, tpls)

		res, err := r.Resolve(context.Background(), "app", Options{})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if names := installNames(res); !reflect.DeepEqual(names, []string{"app", "librun"}) {
			t.Errorf("toInstall = %v, want [app librun]", names)
		}
	})

	t.Run("opt in expands build deps", func(t *testing.T) {
		sys, idx, tpls := communityFixture(deps)
		tpls.templates["app"].MakeDepends = []string{"libbuild"}
		tpls.templates["app"].HostMakeDepends = []string{"tool"}
		r := testResolver(sys, idx, tpls)

		res, err := r.Resolve(context.Background(), "app", Options{IncludeBuildDeps: true})
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		want := []string{"app", "librun", "libbuild", "tool"}
		if names := installNames(res); !reflect.DeepEqual(names, want) {
			t.Errorf("toInstall = %v, want %v", names, want)
		}
	})
}

func TestResolveCommunitySourceBuilds(t *testing.T) {
	// No binary for the detected arch and no system repo entry: the
	// package is scheduled for a local build and still expanded.
	idx := &fakeIndex{entries: map[string]vup.PackageMetadata{
		"vuru-theme": sourceEntry("vuru-theme", "themes", "1.0_1"),
		"libfoo":     binaryEntry("libfoo", "libs", "2.0_1", "x86_64", "https://example.com/libs-x86_64-current"),
	}}
	tpls := &fakeTemplates{templates: map[string]*template.Template{
		"vuru-theme": newTemplate("vuru-theme", "libfoo"),
		"libfoo":     newTemplate("libfoo"),
	}}
	r := testResolver(&fakeSystem{}, idx, tpls)

	res, err := r.Resolve(context.Background(), "vuru-theme", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.ToBuild) != 1 || res.ToBuild[0].Name != "vuru-theme" {
		t.Fatalf("toBuild = %+v, want [vuru-theme]", res.ToBuild)
	}
	if res.ToBuild[0].Source != SourceCommunitySource {
		t.Errorf("source = %q, want %q", res.ToBuild[0].Source, SourceCommunitySource)
	}
	if names := installNames(res); !reflect.DeepEqual(names, []string{"libfoo"}) {
		t.Errorf("toInstall = %v, want [libfoo]", names)
	}
}

func TestResolveArchDetectionFatal(t *testing.T) {
	sys := &fakeSystem{archErr: vuerrors.New(vuerrors.ErrCodeArchDetection, "cannot detect architecture")}
	r := testResolver(sys, &fakeIndex{}, &fakeTemplates{})

	res, err := r.Resolve(context.Background(), "htop", Options{})
	if err == nil {
		t.Fatal("Resolve with failing arch detection returned nil error")
	}
	if res != nil {
		t.Errorf("resolution = %+v, want nil", res)
	}
	if !vuerrors.Is(err, vuerrors.ErrCodeArchDetection) {
		t.Errorf("error = %v, want code %s", err, vuerrors.ErrCodeArchDetection)
	}
}

func TestResolveProbeErrorFatal(t *testing.T) {
	sys := &fakeSystem{probeErr: vuerrors.New(vuerrors.ErrCodeCommandFailed, "xbps-query missing")}
	r := testResolver(sys, &fakeIndex{}, &fakeTemplates{})

	if _, err := r.Resolve(context.Background(), "htop", Options{}); err == nil {
		t.Fatal("Resolve with broken probes returned nil error")
	}
}

func TestResolveInvalidDependencyName(t *testing.T) {
	// A template can name anything; unsafe names are reported missing
	// instead of reaching the system probes.
	sys, idx, tpls := communityFixture(map[string][]string{"app": {"../escape"}})
	r := testResolver(sys, idx, tpls)

	res, err := r.Resolve(context.Background(), "app", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !reflect.DeepEqual(res.Missing, []string{"../escape"}) {
		t.Fatalf("missing = %v, want [../escape]", res.Missing)
	}
	if len(res.Diagnostics) == 0 {
		t.Fatal("no diagnostics recorded")
	}
	d := res.Diagnostics[0]
	if d.Code != vuerrors.ErrCodeDependencyNotFound || d.Err == nil {
		t.Errorf("diagnostic = %+v, want %s with a cause", d, vuerrors.ErrCodeDependencyNotFound)
	}
}

func TestResolveParallelMatchesSerial(t *testing.T) {
	deps := map[string][]string{
		"app":  {"liba", "libb", "libc", "ghost"},
		"liba": {"libd", "libe"},
		"libb": {"libd"},
		"libc": {"app"},
		"libd": nil,
		"libe": {"libf"},
		"libf": nil,
	}

	run := func(workers int) *Resolution {
		sys, idx, tpls := communityFixture(deps)
		sys.installed = map[string]bool{"libf": true}
		r := testResolver(sys, idx, tpls)
		res, err := r.Resolve(context.Background(), "app", Options{Workers: workers})
		if err != nil {
			t.Fatalf("Resolve(workers=%d): %v", workers, err)
		}
		return res
	}

	serial := run(1)
	parallel := run(8)
	if !reflect.DeepEqual(serial, parallel) {
		t.Errorf("parallel resolution differs from serial\nserial:   %+v\nparallel: %+v", serial, parallel)
	}
}
