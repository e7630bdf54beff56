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

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/newae-go/metrisca/dataset"
	"github.com/newae-go/metrisca/util"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/labstack/echo"
)

var (
	portFlag    = flag.Int("port", 8080, "Server HTTP port number")
	resultsFlag = flag.String("results", "results", "Directory of metric CSV outputs to display")
	datasetFlag = flag.String("datasets", "datasets", "Directory of .sds dataset files to display")
)

const (
	resultExt  = ".csv"
	datasetExt = ".sds"
)

func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(filename))
}

func resultsDirectory() string {
	return path.Join(projectRoot(), *resultsFlag)
}

func datasetsDirectory() string {
	return path.Join(projectRoot(), *datasetFlag)
}

// watchDirectoryChanges waits for changes under dir and publishes each
// matching fsnotify event to broker, the way the teacher's capture viewer
// watches its captures directory.
func watchDirectoryChanges(broker *util.Broker, dir, suffix string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		glog.Errorf("NewWatcher failed: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		glog.Errorf("watcher.Add failed: %v", err)
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				glog.Warning("watcher.Events is not ok. Aborting")
				return
			}
			glog.V(1).Infof("Watcher event: %v", event)
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				if strings.HasSuffix(event.Name, suffix) {
					broker.Publish(event)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				glog.Warning("watcher.Errors is not ok. Aborting")
				return
			}
			glog.Warning("Watcher error:", err)
		}
	}
}

func waitForChange(c echo.Context, watcher *util.Broker) error {
	var wg sync.WaitGroup
	timedOut := time.NewTimer(5 * time.Minute)

	wg.Add(1)
	go func() {
		defer wg.Done()
		changed := watcher.Subscribe()
		defer watcher.Unsubscribe(changed)

		for {
			select {
			case <-timedOut.C:
				glog.V(1).Infof("Timed out")
				return
			case <-c.Request().Context().Done():
				glog.V(1).Infof("Client disconnected")
				return
			case <-changed:
				glog.V(1).Infof("Received notification from broker")
				return
			}
		}
	}()

	wg.Wait()
	return nil
}

// sanitizeName rejects any path separator or parent-directory segment so a
// request's :name/:filename parameter can't escape its intended directory
// via path.Join.
func sanitizeName(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == ".." {
		return "", fmt.Errorf("invalid name %q", name)
	}
	return name, nil
}

// loadResultRows parses a metric CSV output (header row + data rows) into
// row-of-cells JSON, one map per data row keyed by the header's column
// names.
func loadResultRows(filename string) ([]map[string]string, error) {
	filename, err := sanitizeName(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path.Join(resultsDirectory(), filename+resultExt))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	var rows []map[string]string
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func loadDataset(name string) (*dataset.Dataset, error) {
	name, err := sanitizeName(name)
	if err != nil {
		return nil, err
	}
	return dataset.Load(path.Join(datasetsDirectory(), name+datasetExt))
}

func main() {
	defer glog.Flush()
	flag.Parse()

	resultsBroker := util.NewBroker()
	go resultsBroker.Start()
	go watchDirectoryChanges(resultsBroker, resultsDirectory(), resultExt)

	e := echo.New()

	e.GET("/", func(c echo.Context) error {
		return c.HTML(http.StatusOK, "<html><body><h1>metrisca viewer</h1>"+
			"<p>GET /results, /results/:name, /datasets, /datasets/:name, /datasets/:name/samples/:trace</p></body></html>")
	})

	// Returns the list of metric CSV files available in the results directory.
	e.GET("/results", func(c echo.Context) error {
		if c.QueryParam("wait") != "false" {
			waitForChange(c, resultsBroker)
		}
		files, err := filepath.Glob(path.Join(resultsDirectory(), "*"+resultExt))
		if err != nil {
			glog.Errorf("Glob failed: %v", err)
			return err
		}
		for i, f := range files {
			files[i] = strings.TrimSuffix(filepath.Base(f), resultExt)
		}
		return c.JSON(http.StatusOK, files)
	})

	// Returns the parsed rows of a single metric CSV output.
	e.GET("/results/:name", func(c echo.Context) error {
		rows, err := loadResultRows(c.Param("name"))
		if err != nil {
			glog.Errorf("Error loading result file: %v", err)
			return err
		}
		return c.JSON(http.StatusOK, rows)
	})

	// Returns the list of dataset files available in the datasets directory.
	e.GET("/datasets", func(c echo.Context) error {
		files, err := filepath.Glob(path.Join(datasetsDirectory(), "*"+datasetExt))
		if err != nil {
			glog.Errorf("Glob failed: %v", err)
			return err
		}
		for i, f := range files {
			files[i] = strings.TrimSuffix(filepath.Base(f), datasetExt)
		}
		return c.JSON(http.StatusOK, files)
	})

	// Returns a dataset's header overview.
	e.GET("/datasets/:name", func(c echo.Context) error {
		ds, err := loadDataset(c.Param("name"))
		if err != nil {
			glog.Errorf("Error loading dataset: %v", err)
			return err
		}
		return c.JSON(http.StatusOK, ds.Header())
	})

	// Returns one trace's sample vector from a dataset.
	e.GET("/datasets/:name/samples/:trace", func(c echo.Context) error {
		ds, err := loadDataset(c.Param("name"))
		if err != nil {
			glog.Errorf("Error loading dataset: %v", err)
			return err
		}
		trace, err := strconv.Atoi(c.Param("trace"))
		if err != nil || trace < 0 || uint32(trace) >= ds.NumTraces() {
			return c.String(http.StatusInternalServerError, "Invalid trace")
		}
		samples := make([]int32, ds.NumSamples())
		for s := range samples {
			samples[s] = ds.Sample(s)[trace]
		}
		return c.JSON(http.StatusOK, samples)
	})

	glog.Fatal(e.Start(fmt.Sprintf(":%d", *portFlag)))
}
