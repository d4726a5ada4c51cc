// speedtool is a CLI utility for working with NFS game asset files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/e-rk/speedtools/internal/export"
	"github.com/e-rk/speedtools/pkg/formats"
	"github.com/e-rk/speedtools/pkg/types"
	"github.com/e-rk/speedtools/pkg/vehicle"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "list", "ls":
		cmdList(args)
	case "extract", "x":
		cmdExtract(args)
	case "textures", "tex":
		cmdTextures(args)
	case "sounds", "snd":
		cmdSounds(args)
	case "vehicle", "car":
		cmdVehicle(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`speedtool - NFS game asset utility

Usage:
  speedtool <command> [options]

Commands:
  info <file.viv>                    Show archive information
  list <file.viv> [pattern]          List archive entries
  extract <file.viv> <name> [output] Extract entries to directory
  textures <file.fsh|file.qfs>       Unpack textures as PNG files
  sounds <file.bnk>                  Export bank sounds as WAV files
  vehicle <file.viv>                 Export vehicle textures and sounds

Examples:
  speedtool info car.viv
  speedtool list car.viv "*.tga"
  speedtool extract car.viv car.fce ./output
  speedtool textures -out ./textures TR0.QFS
  speedtool sounds -out ./sounds car.bnk
  speedtool vehicle -out ./car car.viv`)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: speedtool info <file.viv>")
		os.Exit(1)
	}

	archive, err := formats.ParseVivFile(args[0])
	if err != nil {
		fatal(err)
	}

	extCount := make(map[string]int)
	var totalSize int
	for _, entry := range archive.Entries {
		ext := strings.ToLower(filepath.Ext(entry.Name))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++
		totalSize += len(entry.Body)
	}

	fmt.Printf("Archive: %s\n", args[0])
	fmt.Printf("Entries: %d\n", len(archive.Entries))
	fmt.Printf("Size:    %.2f KB\n", float64(totalSize)/1024)
	fmt.Println()
	fmt.Println("Entries by type:")

	exts := make([]string, 0, len(extCount))
	for ext := range extCount {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		fmt.Printf("  %-10s %d\n", ext, extCount[ext])
	}
}

func cmdList(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: speedtool list <file.viv> [pattern]")
		os.Exit(1)
	}

	archive, err := formats.ParseVivFile(args[0])
	if err != nil {
		fatal(err)
	}

	pattern := ""
	if len(args) > 1 {
		pattern = strings.ToLower(args[1])
	}

	for _, entry := range archive.Entries {
		if pattern != "" {
			matched, _ := filepath.Match(pattern, strings.ToLower(entry.Name))
			if !matched && !strings.Contains(strings.ToLower(entry.Name), pattern) {
				continue
			}
		}
		fmt.Printf("%8d  %s\n", len(entry.Body), entry.Name)
	}
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: speedtool extract <file.viv> <name> [output_dir]")
		os.Exit(1)
	}

	name := fs.Arg(1)
	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive, err := formats.ParseVivFile(fs.Arg(0))
	if err != nil {
		fatal(err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fatal(err)
	}

	// A glob pattern extracts every matching entry.
	extracted := 0
	for _, entry := range archive.Entries {
		matched, _ := filepath.Match(strings.ToLower(name), strings.ToLower(entry.Name))
		if !matched && !strings.EqualFold(entry.Name, name) {
			continue
		}
		outputPath := filepath.Join(outputDir, filepath.Base(entry.Name))
		if err := os.WriteFile(outputPath, entry.Body, 0644); err != nil {
			fatal(err)
		}
		fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(entry.Body))
		extracted++
	}
	if extracted == 0 {
		fmt.Fprintf(os.Stderr, "Entry not found: %s\n", name)
		os.Exit(1)
	}
}

func cmdTextures(args []string) {
	fs := flag.NewFlagSet("textures", flag.ExitOnError)
	outputDir := fs.String("out", ".", "Output directory")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: speedtool textures [-out dir] <file.fsh|file.qfs>")
		os.Exit(1)
	}

	fsh, err := formats.ParseFshOrQfs(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	resources, err := fsh.TextureResources()
	if err != nil {
		fatal(err)
	}

	if err := export.SaveResources(*outputDir, resources); err != nil {
		fatal(err)
	}
	fmt.Printf("Unpacked %d textures to %s\n", len(resources), *outputDir)
}

func cmdSounds(args []string) {
	fs := flag.NewFlagSet("sounds", flag.ExitOnError)
	outputDir := fs.String("out", ".", "Output directory")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: speedtool sounds [-out dir] <file.bnk>")
		os.Exit(1)
	}

	bank, err := formats.ParseBnkFile(fs.Arg(0))
	if err != nil {
		fatal(err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fatal(err)
	}

	base := strings.TrimSuffix(filepath.Base(fs.Arg(0)), filepath.Ext(fs.Arg(0)))
	exported := 0
	for i, stream := range bank.Streams {
		if stream == nil {
			continue
		}
		path := filepath.Join(*outputDir, fmt.Sprintf("%s-%02d.wav", base, i))
		if err := export.SaveSound(path, stream); err != nil {
			fatal(err)
		}
		fmt.Printf("Exported: %s\n", path)
		exported++
	}
	fmt.Printf("Exported %d sounds to %s\n", exported, *outputDir)
}

func cmdVehicle(args []string) {
	fs := flag.NewFlagSet("vehicle", flag.ExitOnError)
	outputDir := fs.String("out", ".", "Output directory")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: speedtool vehicle [-out dir] <file.viv>")
		os.Exit(1)
	}

	v, err := vehicle.Load(fs.Arg(0))
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Body parts:     %d\n", len(v.Body))
	fmt.Printf("Interior parts: %d\n", len(v.Interior))
	fmt.Printf("Lights:         %d\n", len(v.Lights))
	fmt.Printf("Engine sounds:  %d\n", len(v.EngineSounds))
	if v.Performance != nil {
		fmt.Printf("Mass:           %.1f kg\n", v.Performance.Mass)
	}

	materials := make([]types.Resource, 0, len(v.Materials))
	for _, resource := range v.Materials {
		materials = append(materials, resource)
	}
	sort.Slice(materials, func(i, j int) bool { return materials[i].Name < materials[j].Name })
	if err := export.SaveResources(*outputDir, materials); err != nil {
		fatal(err)
	}
	for _, sound := range v.EngineSounds {
		path := filepath.Join(*outputDir, fmt.Sprintf("engine-%02d.wav", sound.Patch))
		if err := export.SaveSound(path, sound.Stream); err != nil {
			fatal(err)
		}
	}
	fmt.Printf("Exported %d textures and %d sounds to %s\n",
		len(materials), len(v.EngineSounds), *outputDir)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
