package flowshop

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"
)

// maxTextCells bounds the matrix size accepted by ReadText.
const maxTextCells = 1 << 24

// ReadText parses the plain format: "jobs machines" followed by jobs rows of
// machines integers. Whitespace and line breaks are interchangeable.
func ReadText(r io.Reader, name string) (*Instance, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	next := func(what string) (int, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("unexpected end of input reading %s", what)
		}
		v, err := strconv.Atoi(sc.Text())
		if err != nil {
			return 0, fmt.Errorf("%s: %w", what, err)
		}
		return v, nil
	}

	jobs, err := next("number of jobs")
	if err != nil {
		return nil, err
	}
	machines, err := next("number of machines")
	if err != nil {
		return nil, err
	}
	if jobs <= 0 || machines <= 0 {
		return nil, fmt.Errorf("invalid problem dimensions %dx%d", jobs, machines)
	}
	if jobs > math.MaxInt/machines || jobs*machines > maxTextCells {
		return nil, fmt.Errorf("problem dimensions %dx%d exceed %d processing times", jobs, machines, maxTextCells)
	}

	pt := make([]int, jobs*machines)
	for j := 0; j < jobs; j++ {
		for m := 0; m < machines; m++ {
			v, err := next(fmt.Sprintf("time of job %d on machine %d", j, m))
			if err != nil {
				return nil, err
			}
			pt[j*machines+m] = v
		}
	}

	inst, err := NewInstance(jobs, machines, pt)
	if err != nil {
		return nil, err
	}
	inst.Name = name
	return inst, nil
}

// WriteText writes inst in the format accepted by ReadText.
func WriteText(w io.Writer, inst *Instance) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", inst.Jobs, inst.Machines)
	for j := 0; j < inst.Jobs; j++ {
		parts := make([]string, inst.Machines)
		for m := range parts {
			parts[m] = strconv.Itoa(inst.Time(j, m))
		}
		fmt.Fprintln(bw, strings.Join(parts, " "))
	}
	return bw.Flush()
}

type instanceDoc struct {
	Name            string  `json:"name,omitempty"`
	ProcessingTimes [][]int `json:"processingTimes"`
}

// ReadYAML parses a document of the form
//
//	name: ta001
//	processingTimes:
//	  - [54, 83, 15]
//	  - [79, 3, 11]
func ReadYAML(r io.Reader) (*Instance, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc instanceDoc
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("parse instance: %w", err)
	}
	return FromMatrix(doc.ProcessingTimes, doc.Name)
}

func WriteYAML(w io.Writer, inst *Instance) error {
	data, err := yaml.Marshal(instanceDoc{Name: inst.Name, ProcessingTimes: inst.Matrix()})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFile reads an instance, choosing the format by file extension.
func LoadFile(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var inst *Instance
	if isYAML(path) {
		inst, err = ReadYAML(f)
		if err == nil && inst.Name == "" {
			inst.Name = path
		}
	} else {
		inst, err = ReadText(f, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

func SaveFile(path string, inst *Instance) error {
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if isYAML(path) {
		err = WriteYAML(f, inst)
	} else {
		err = WriteText(f, inst)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}
