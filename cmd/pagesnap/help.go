package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pagesnap <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert      Render HTML or Markdown files to PDF")
	fmt.Fprintln(w, "  certificate  Render publication certificates from YAML")
	fmt.Fprintln(w, "  serve        Run the HTTP render API")
	fmt.Fprintln(w, "  doctor       Check the browser and environment")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w, "  help         Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pagesnap help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet                 Only show errors")
	fmt.Fprintln(w, "  -v, --verbose               Show stage timings")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>         Page size: a4, letter, legal")
	fmt.Fprintln(w, "      --orientation <s>       Orientation: portrait, landscape")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Capture:")
	fmt.Fprintln(w, "  -t, --target <id>           Element id to capture (default cv-preview-content)")
	fmt.Fprintln(w, "  -m, --mode <s>              raster (default) or print")
	fmt.Fprintln(w, "      --scale <f>             Device pixel scale (default 2)")
	fmt.Fprintln(w, "      --max-canvas-height <n> Tallest single capture in device pixels (default 30000)")
	fmt.Fprintln(w, "      --chunk-overlap <n>     Overlap between chunks in CSS pixels (default 100)")
	fmt.Fprintln(w, "      --settle-timeout <d>    Wait for layout to settle (default 300ms)")
	fmt.Fprintln(w, "      --viewport-width <n>    Browser viewport width (default 1280)")
	fmt.Fprintln(w, "      --image-format <s>      Page images: png (default) or jpeg")
	fmt.Fprintln(w, "      --jpeg-quality <n>      JPEG quality 1-100 (default 92)")
	fmt.Fprintln(w, "      --timeout <d>           Per-document timeout (default 60s)")
	fmt.Fprintln(w, "      --asset-path <dir>      Override built-in styles and templates")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables PAGESNAP_PAGE_SIZE, PAGESNAP_TARGET, PAGESNAP_SCALE, ...")
	fmt.Fprintln(w, "override the config file; flags override both.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pagesnap convert <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render .html/.htm and .md/.markdown files, or directories of them, to PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>         Output file (.pdf, single input) or directory")
	fmt.Fprintln(w, "  -w, --workers <n>           Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "      --css <path>            Extra CSS for Markdown sources")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printCertificateUsage prints usage for the certificate command.
func printCertificateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pagesnap certificate <file.yaml>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render publication certificates. Each YAML file holds one certificate:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  name: Ada Lovelace")
	fmt.Fprintln(w, "  publication_title: Notes on the Analytical Engine")
	fmt.Fprintln(w, "  kind: Journal article")
	fmt.Fprintln(w, "  venue: Scientific Memoirs")
	fmt.Fprintln(w, "  date: auto:DD/MM/YYYY")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>         Output file (.pdf, single input) or directory")
	fmt.Fprintln(w, "  -w, --workers <n>           Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "      --css <path>            Extra CSS after the certificate style")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pagesnap serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the HTTP API:")
	fmt.Fprintln(w, "  GET  /health")
	fmt.Fprintln(w, "  POST /api/render?target=&filename=&mode=&page=&orientation=   (HTML body)")
	fmt.Fprintln(w, "  POST /api/render/markdown                                     (Markdown body)")
	fmt.Fprintln(w, "  POST /api/render/certificate                                  (YAML body)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>      Listen address (default 127.0.0.1:8080)")
	fmt.Fprintln(w, "  -w, --workers <n>           Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "      --max-body-bytes <n>    Request body limit (default 10MiB)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pagesnap doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that Chrome can be found and the environment can render.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "certificate":
		printCertificateUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: pagesnap version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: pagesnap help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "%v: %s\n", ErrUnknownCommand, args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
