package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mogaika/transfer_skin_cluster/config"
	"github.com/mogaika/transfer_skin_cluster/gltfhost"
	"github.com/mogaika/transfer_skin_cluster/rename"
	"github.com/mogaika/transfer_skin_cluster/status"
	"github.com/mogaika/transfer_skin_cluster/transfer"
	"github.com/mogaika/transfer_skin_cluster/utils"
	"github.com/mogaika/transfer_skin_cluster/web"
)

func loadPresets(path string) rename.Presets {
	if path == "" {
		return rename.Presets{}
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return rename.Presets{}
	} else if err != nil {
		log.Fatalf("Failed to open presets: %v", err)
	}
	defer f.Close()
	presets, err := rename.LoadPresets(f)
	if err != nil {
		log.Fatalf("Failed to load presets %q: %v", path, err)
	}
	return presets
}

func openScene(path string, rebind bool) *gltfhost.Scene {
	if path == "" {
		log.Fatal("-scene is required for this mode")
	}
	scene, err := gltfhost.Open(path)
	if err != nil {
		log.Fatal(err)
	}
	scene.Replace = rebind
	return scene
}

func splitList(s string) []string {
	result := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func main() {
	var mode, project, scenePath, mesh, file, addr string
	var assign, search, replace, prefix, suffix, presetsPath, preset, saveAs string
	var encoding, dataDir string
	var epsilon, tolerance float64
	var reverse, rebind, debug bool
	flag.StringVar(&mode, "mode", "help", "export|exclusive|import|savepreset|check|dump|serve|help")
	flag.StringVar(&project, "project", ".", "Project root directory")
	flag.StringVar(&dataDir, "datadir", config.DefaultDataDir, "Weights directory inside the project")
	flag.StringVar(&scenePath, "scene", "", "Path to .gltf/.glb scene")
	flag.StringVar(&mesh, "mesh", "", "Comma separated mesh selection")
	flag.StringVar(&file, "file", "", "Weights file name or path")
	flag.StringVar(&assign, "assign", "", "Direct rename old=new,old2=new2")
	flag.StringVar(&search, "search", "", "Text to search in unmatched names")
	flag.StringVar(&replace, "replace", "", "Replacement for -search")
	flag.StringVar(&prefix, "prefix", "", "Prefix added to unmatched names")
	flag.StringVar(&suffix, "suffix", "", "Suffix added to unmatched names")
	flag.StringVar(&presetsPath, "presets", "", "Yaml file with rename presets")
	flag.StringVar(&preset, "preset", "", "Rename preset applied before other rename options")
	flag.BoolVar(&reverse, "reverse", false, "Bind influences in reverse order")
	flag.StringVar(&saveAs, "saveas", "", "Save renamed weights under this name")
	flag.BoolVar(&rebind, "rebind", false, "Replace existing skin binding of the mesh")
	flag.StringVar(&encoding, "encoding", config.GetEncoding().String(), "Encoding of names in legacy files: "+strings.Join(config.ListEncodings(), ", "))
	flag.Float64Var(&epsilon, "epsilon", config.DefaultPruneEpsilon, "Weights not above this value are dropped on export")
	flag.Float64Var(&tolerance, "tolerance", config.DefaultWeightTolerance, "Allowed deviation of vertex weights sum from 1")
	flag.StringVar(&addr, "i", ":8000", "Address of server")
	flag.BoolVar(&debug, "debug", false, "Dump models and results")
	flag.Parse()

	if err := config.SetEncoding(encoding); err != nil {
		log.Fatal(err)
	}
	if err := config.SetPruneEpsilon(epsilon); err != nil {
		log.Fatal(err)
	}
	if err := config.SetWeightTolerance(tolerance); err != nil {
		log.Fatal(err)
	}
	if err := config.SetDataDir(dataDir); err != nil {
		log.Fatal(err)
	}

	proj := transfer.NewProject(project)
	presets := loadPresets(presetsPath)

	ropts := rename.Options{Search: search, Replace: replace, Prefix: prefix, Suffix: suffix}
	if assign != "" {
		da, err := rename.ParseAssign(assign)
		if err != nil {
			log.Fatal(err)
		}
		ropts.Assign = da
	}

	switch mode {
	case "export", "exclusive":
		scene := openScene(scenePath, rebind)
		t := transfer.New(scene, proj)
		var path string
		var err error
		if mode == "export" {
			path, err = t.Export(splitList(mesh))
		} else {
			path, err = t.ExportExclusive(splitList(mesh))
		}
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(path)
	case "import":
		scene := openScene(scenePath, rebind)
		t := transfer.New(scene, proj)

		opts := transfer.ImportOptions{Reverse: reverse, SaveRenamedAs: saveAs}
		if preset != "" {
			strategies, err := presets.Strategies(preset)
			if err != nil {
				log.Fatal(err)
			}
			opts.Strategies = strategies
		}
		opts.Strategies = append(opts.Strategies, ropts.Strategies()...)

		result, err := t.Import(file, opts)
		if err != nil {
			log.Fatal(err)
		}
		if debug {
			utils.LogDump(result)
		}
		if !result.Applied {
			for _, m := range result.Unmatched {
				fmt.Printf("not found in scene: %v\n", m)
			}
			os.Exit(2)
		}
		if err := scene.Save(); err != nil {
			log.Fatal(err)
		}
	case "savepreset":
		if err := savePreset(presetsPath, presets, preset, ropts); err != nil {
			log.Fatal(err)
		}
	case "check":
		if bad := weightsCheck(transfer.New(nil, proj)); bad != 0 {
			os.Exit(1)
		}
	case "dump":
		m, _, err := transfer.New(nil, proj).Load(file)
		if err != nil {
			log.Fatal(err)
		}
		if debug {
			utils.LogDump(m)
		}
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		if err := encoder.Encode(m); err != nil {
			log.Fatal(err)
		}
		encoder.Close()
	case "serve":
		scene := openScene(scenePath, rebind)
		t := transfer.New(scene, proj)
		t.Reporter = status.Reporter{}
		if err := web.StartServer(addr, t, presets); err != nil {
			log.Fatal(err)
		}
	case "help":
		fmt.Print(transfer.CommandsHelp())
		flag.PrintDefaults()
	default:
		log.Printf("Unknown mode %q", mode)
		fmt.Print(transfer.CommandsHelp())
		os.Exit(1)
	}
}
