package build_test

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/nickng/perforator/ssa/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	loopProg = `
	package main
	func main() {
		s := 0
		for i := 0; i < 10; i++ {
			s += i
		}
		println(s)
	}`
	emptyProg = `package main; func main() {}`

	testdir string
)

func init() {
	testdir, _ = os.Getwd() // Save the dir where the test files are, for the runnable examples.
}

// Test loading from files.
func TestBuildFromFiles(t *testing.T) {
	files := []string{"testdata/main.go", "testdata/foo.go", "testdata/bar.go"}
	info, err := build.FromFiles(files).Build()
	require.NoError(t, err, "SSA build failed")
	mains, err := info.MainPkgs()
	require.NoError(t, err, "cannot find main package")
	for _, main := range mains {
		assert.NotNil(t, main.Func("main"), "cannot find main.main()")
		assert.NotNil(t, main.Func("foo"), "cannot find main.foo()")
		assert.NotNil(t, main.Func("bar"), "cannot find main.bar()")
	}
}

// Test loading from string/reader.
func TestBuildFromReader(t *testing.T) {
	info, err := build.FromReader(strings.NewReader(loopProg)).Build()
	require.NoError(t, err, "SSA build failed")
	mains, err := info.MainPkgs()
	require.NoError(t, err, "cannot find main package")
	for _, main := range mains {
		assert.NotNil(t, main.Func("main"), "cannot find main.main()")
	}
}

func TestBuildNoFiles(t *testing.T) {
	_, err := build.FromFiles(nil).Build()
	assert.True(t, errors.Is(err, build.ErrNoSource))
}

func TestBuildSyntaxError(t *testing.T) {
	_, err := build.FromReader(strings.NewReader("package main; func {")).Build()
	assert.Error(t, err)
}

func TestBuildTypeError(t *testing.T) {
	_, err := build.FromReader(strings.NewReader("package main; func main() { x := 1 }")).Build()
	assert.Error(t, err)
}

func TestWithBuildLog(t *testing.T) {
	buf := new(bytes.Buffer)
	conf := build.FromReader(strings.NewReader(loopProg)).WithBuildLog(buf, log.LstdFlags)
	info, err := conf.Build()
	require.NoError(t, err, "SSA build failed")
	assert.Same(t, buf, info.BldLog, "Expects build log to propagate to built SSA")
	assert.Contains(t, buf.String(), "Program loaded and type checked")
}

func ExampleFromFiles() {
	os.Chdir(testdir)
	files := []string{"testdata/main.go", "testdata/foo.go", "testdata/bar.go"}
	conf := build.FromFiles(files)
	info, err := conf.Build()
	if err != nil {
		log.Fatalf("SSA build failed: %v", err)
	}
	_ = info // Use info here
	// output:
}

func ExampleFromReader() {
	conf := build.FromReader(strings.NewReader(emptyProg))
	info, err := conf.Build()
	if err != nil {
		log.Fatalf("SSA build failed: %v", err)
	}
	_ = info // Use info here
	// output:
}
