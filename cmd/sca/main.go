// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// sca is the interactive front-end to the analysis core: it merely
// parses `<command> <positional...> (--flag value | -f value)*` lines
// and populates an argument bag for the core to run, per spec.md §6.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/newae-go/metrisca"
	"github.com/newae-go/metrisca/dataset"

	_ "github.com/newae-go/metrisca/distinguishers"
	_ "github.com/newae-go/metrisca/metrics"
	_ "github.com/newae-go/metrisca/models"
	_ "github.com/newae-go/metrisca/profilers"
	_ "github.com/newae-go/metrisca/scores"
)

func init() {
	flag.Parse()
}

// flagKind says how a --flag value token should be parsed and which
// ArgumentList setter it feeds.
type flagKind int

const (
	kindString flagKind = iota
	kindUint32
	kindUint8
	kindFloat64
	kindDataset
)

var flagSpecs = map[string]flagKind{
	metrisca.ArgDataset:                  kindDataset,
	metrisca.ArgModel:                    kindString,
	metrisca.ArgDistinguisher:            kindString,
	metrisca.ArgProfiler:                 kindString,
	metrisca.ArgTraceCount:               kindUint32,
	metrisca.ArgByteIndex:                kindUint32,
	metrisca.ArgTraceStep:                kindUint32,
	metrisca.ArgKnownKey:                 kindUint8,
	metrisca.ArgOrder:                    kindUint32,
	metrisca.ArgSigma:                    kindFloat64,
	metrisca.ArgIntegrationLowerBound:    kindFloat64,
	metrisca.ArgIntegrationUpperBound:    kindFloat64,
	metrisca.ArgIntegrationSampleCount:   kindUint32,
	metrisca.ArgTrainingDataset:          kindDataset,
	metrisca.ArgTestingDataset:           kindDataset,
	metrisca.ArgFixedDataset:             kindDataset,
	metrisca.ArgRandomDataset:            kindDataset,
	metrisca.ArgEnumeratedKeyCount:       kindUint32,
	metrisca.ArgOutputEnumeratedKeyCount: kindUint32,
	metrisca.ArgSubkey:                   kindUint32,
	metrisca.ArgBinSize:                  kindUint32,
	metrisca.ArgSampleStart:              kindUint32,
	metrisca.ArgSampleEnd:                kindUint32,
	metrisca.ArgScore:                    kindString,
	metrisca.ArgPoiCount:                 kindUint32,
}

// session holds everything a REPL line can refer to by name: the loaded
// datasets, plus whatever the core's own state has accumulated.
type session struct {
	datasets map[string]*dataset.Dataset
}

func newSession() *session {
	return &session{datasets: make(map[string]*dataset.Dataset)}
}

// parseFlags turns `--flag value` / `-f value` pairs into an ArgumentList,
// resolving any dataset-kind flag to an already-loaded dataset by name.
// The special `--out` flag is returned separately: it is a CLI-layer
// concern (where to write the sink), not a core argument.
func (s *session) parseFlags(tokens []string) (*metrisca.ArgumentList, string, error) {
	args := metrisca.NewArgumentList()
	outFile := ""

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !strings.HasPrefix(tok, "-") {
			return nil, "", metrisca.Errorf(metrisca.InvalidCommand, "expected a --flag, got %q", tok)
		}
		name := strings.TrimLeft(tok, "-")
		if i+1 >= len(tokens) {
			return nil, "", metrisca.Errorf(metrisca.InvalidCommand, "flag %q is missing a value", tok)
		}
		value := tokens[i+1]
		i++

		if name == metrisca.ArgOutputFile || name == "out" {
			outFile = value
			continue
		}

		kind, ok := flagSpecs[name]
		if !ok {
			return nil, "", metrisca.Errorf(metrisca.InvalidCommand, "unknown flag %q", tok)
		}
		switch kind {
		case kindString:
			args.SetString(name, value)
		case kindUint32:
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return nil, "", metrisca.Wrap(metrisca.InvalidArgument, fmt.Sprintf("flag %q", tok), err)
			}
			args.SetUint32(name, uint32(n))
		case kindUint8:
			n, err := strconv.ParseUint(value, 16, 8)
			if err != nil {
				return nil, "", metrisca.Wrap(metrisca.InvalidArgument, fmt.Sprintf("flag %q (expected hex byte)", tok), err)
			}
			args.SetUint8(name, uint8(n))
		case kindFloat64:
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, "", metrisca.Wrap(metrisca.InvalidArgument, fmt.Sprintf("flag %q", tok), err)
			}
			args.SetFloat64(name, f)
		case kindDataset:
			ds, ok := s.datasets[value]
			if !ok {
				return nil, "", metrisca.Errorf(metrisca.InvalidArgument, "no dataset named %q is loaded", value)
			}
			args.SetDataset(name, ds)
		}
	}
	return args, outFile, nil
}

func (s *session) cmdLoad(tokens []string) error {
	if len(tokens) != 2 {
		return metrisca.Errorf(metrisca.InvalidCommand, "usage: load <name> <file>")
	}
	ds, err := dataset.Load(tokens[1])
	if err != nil {
		return err
	}
	s.datasets[tokens[0]] = ds
	fmt.Printf("loaded %q: %d traces, %d samples\n", tokens[0], ds.NumTraces(), ds.NumSamples())
	return nil
}

func (s *session) cmdUnload(tokens []string) error {
	if len(tokens) != 1 {
		return metrisca.Errorf(metrisca.InvalidCommand, "usage: unload <name>")
	}
	if _, ok := s.datasets[tokens[0]]; !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "no dataset named %q is loaded", tokens[0])
	}
	delete(s.datasets, tokens[0])
	return nil
}

func (s *session) cmdDatasets(tokens []string) error {
	names := make([]string, 0, len(s.datasets))
	for name := range s.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h := s.datasets[name].Header()
		fmt.Printf("%s: %d traces, %d samples, algorithm=%s, plaintext_mode=%s\n",
			name, h.NumTraces, h.NumSamples, h.Algorithm, h.PlaintextMode)
	}
	return nil
}

func (s *session) cmdSplit(tokens []string) error {
	if len(tokens) != 4 {
		return metrisca.Errorf(metrisca.InvalidCommand, "usage: split <name> <n> <first-name> <second-name>")
	}
	ds, ok := s.datasets[tokens[0]]
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "no dataset named %q is loaded", tokens[0])
	}
	n, err := strconv.Atoi(tokens[1])
	if err != nil {
		return metrisca.Wrap(metrisca.InvalidArgument, "split count", err)
	}
	first, second, err := ds.Split(n)
	if err != nil {
		return err
	}
	s.datasets[tokens[2]] = first
	s.datasets[tokens[3]] = second
	return nil
}

func (s *session) cmdMetric(tokens []string) error {
	if len(tokens) < 1 {
		return metrisca.Errorf(metrisca.InvalidCommand, "usage: metric <name> [--flag value]*")
	}
	name := tokens[0]
	args, outFile, err := s.parseFlags(tokens[1:])
	if err != nil {
		return err
	}
	plugin, err := metrisca.Construct(metrisca.PluginMetric, name, args)
	if err != nil {
		return err
	}
	metric, ok := plugin.(interface {
		Run(sink metrisca.RowSink) error
	})
	if !ok {
		return metrisca.Errorf(metrisca.InvalidArgument, "plugin %q is not a metric", name)
	}

	var sink metrisca.RowSink
	if outFile != "" {
		s, err := metrisca.NewCSVSink(outFile)
		if err != nil {
			return err
		}
		sink = s
	} else {
		sink = metrisca.NewCSVSinkWriter(os.Stdout, ',')
	}
	return metric.Run(sink)
}

func help() {
	fmt.Println(`commands:
  load <name> <file>                      load a dataset file under a name
  unload <name>                           drop a loaded dataset
  datasets                                list loaded datasets
  split <name> <n> <first> <second>       split a dataset at trace n
  metric <name> [--flag value]*           construct and run a metric plugin
  help                                    show this text
  quit                                    exit`)
}

func exitCode(err error) int {
	kind, ok := metrisca.KindOf(err)
	if !ok {
		return 1
	}
	return int(kind) + 2
}

func main() {
	defer glog.Flush()

	s := newSession()
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("sca> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			tokens := strings.Fields(line)
			cmd, rest := tokens[0], tokens[1:]

			var err error
			switch cmd {
			case "quit", "exit":
				return
			case "help":
				help()
			case "load":
				err = s.cmdLoad(rest)
			case "unload":
				err = s.cmdUnload(rest)
			case "datasets":
				err = s.cmdDatasets(rest)
			case "split":
				err = s.cmdSplit(rest)
			case "metric":
				err = s.cmdMetric(rest)
			default:
				err = metrisca.Errorf(metrisca.InvalidCommand, "unknown command %q", cmd)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				_ = exitCode(err) // interactive REPL: reported, not exited on
			}
		}
		fmt.Print("sca> ")
	}
}
