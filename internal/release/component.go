package release

import "fmt"

// BitWidth is a target pointer size. It selects the MODEL= make variable,
// the makefile variant on Windows, and the bit-suffixed bin/lib directories
// in the release tree.
type BitWidth int

const (
	Bits32 BitWidth = 32
	Bits64 BitWidth = 64
)

func (w BitWidth) String() string { return fmt.Sprintf("%d", int(w)) }

// Model returns the value passed as MODEL= to the build tool.
func (w BitWidth) Model() string { return w.String() }

// Component is one of the fixed source repositories that make up a release.
// The slice below is ordered: dmd must be built before druntime, phobos and
// tools, because those compile against the freshly built compiler. The table
// never changes at runtime; the build driver is a single loop over it.
type Component struct {
	Name     string   // clone directory name under the workspace
	Repo     string   // repository URL
	SubDir   string   // directory inside the clone where make runs ("" = root)
	Targets  []string // make targets; empty means the default target
	Build    bool     // has a per-bit-width build recipe
	NeedsDMD bool     // recipe passes DMD=<path to the built compiler>
	Sources  bool     // git-tracked files are copied into the release src tree
}

const repoBase = "https://github.com/dlang/"

var components = []Component{
	{Name: "dmd", Repo: repoBase + "dmd.git", SubDir: "src",
		Targets: []string{"dmd"}, Build: true, Sources: true},
	{Name: "druntime", Repo: repoBase + "druntime.git",
		Build: true, NeedsDMD: true, Sources: true},
	{Name: "phobos", Repo: repoBase + "phobos.git",
		Build: true, NeedsDMD: true, Sources: true},
	{Name: "tools", Repo: repoBase + "tools.git",
		Targets: []string{"rdmd", "ddemangle", "dustmite"},
		Build: true, NeedsDMD: true, Sources: true},
	// dlang.org builds once (docs, not per bit width); installer is cloned
	// only for the bundled extras trees. Neither has a per-bit recipe.
	{Name: "dlang.org", Repo: repoBase + "dlang.org.git", Sources: false},
	{Name: "installer", Repo: repoBase + "installer.git", Sources: false},
}

// componentByName returns the table entry or nil.
func componentByName(name string) *Component {
	for i := range components {
		if components[i].Name == name {
			return &components[i]
		}
	}
	return nil
}

// buildOrder returns the components with a per-bit-width recipe, in
// dependency order.
func buildOrder() []Component {
	var out []Component
	for _, c := range components {
		if c.Build {
			out = append(out, c)
		}
	}
	return out
}
