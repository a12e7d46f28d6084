package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/emulator"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/languageServer"
	"github.gatech.edu/ECEInnovation/RV32I-Assembler/util"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "languageServer" {
		if len(os.Args) >= 3 && os.Args[2] == "debug" {
			util.EnableTracing()
		}
		languageServer.ListenAndServe()
		return
	} else if len(os.Args) >= 3 && os.Args[1] == "assemble" {
		filePath := os.Args[2]
		outBase := strings.TrimSuffix(filePath, ".asm")
		outBase = strings.TrimSuffix(outBase, ".s")
		if len(os.Args) >= 4 {
			outBase = os.Args[3]
		}
		runAssemble(filePath, outBase)
	} else if len(os.Args) >= 3 && os.Args[1] == "serve" {
		// host the web shell, reassembling the file on every run request
		emulator.RunStandaloneWebserver(os.Args[2])
	} else if len(os.Args) >= 3 && os.Args[1] == "run" {
		runProgram(os.Args[2])
	} else if len(os.Args) == 1 {
		// run as language server but in tcp mode so it can be remotely debugged
		languageServer.ListenAndServeTCP()
	} else {
		log.Fatalln("Invalid arguments:", os.Args)
	}
}

func runAssemble(filePath, outBase string) {
	b, e := os.ReadFile(filePath)
	if e != nil {
		log.Fatalf("Could not read file %s: %v", filePath, e)
	}

	result := assembler.Assemble(string(b))
	result.FileName = filePath
	printDiagnostics(result)

	if !result.OK() {
		fmt.Fprintln(os.Stderr, result.Summary())
		os.Exit(1)
	}

	if e := util.WriteHexFile(outBase+".hex", result.ProgramText); e != nil {
		log.Fatalf("Could not write %s.hex: %v", outBase, e)
	}
	if e := util.WriteBinFile(outBase+".bin", result.Bytes()); e != nil {
		log.Fatalf("Could not write %s.bin: %v", outBase, e)
	}
	fmt.Printf("Assembled %d words, %s\n", len(result.ProgramText), result.Summary())
}

func runProgram(filePath string) {
	b, e := os.ReadFile(filePath)
	if e != nil {
		log.Fatalf("Could not read file %s: %v", filePath, e)
	}

	result := assembler.Assemble(string(b))
	result.FileName = filePath
	printDiagnostics(result)
	if !result.OK() {
		fmt.Fprintln(os.Stderr, result.Summary())
		os.Exit(1)
	}

	memory := emulator.NewMemoryImage()
	for i, word := range result.ProgramText {
		memory.WriteWord(uint32(i)*4, word)
	}

	config := emulator.EmulatorConfig{
		StackStartAddress: 0x7FFFFFF0,
		GlobalDataAddress: uint32(len(result.ProgramText) * 4),
		HeapStartAddress:  0x10000000,
		Memory:            memory,
		RuntimeLimit:      1000000,
		RuntimeErrorCallback: func(e emulator.RuntimeException) {
			fmt.Fprintf(os.Stderr, "Runtime exception at pc=0x%08X: %s\n", e.PC(), e.Message())
		},
		StdOutCallback: func(b byte) {
			os.Stdout.Write([]byte{b})
		},
	}

	instance := emulator.NewEmulator(config)
	instance.Emulate(0)
	os.Exit(instance.GetExitCode())
}

func printDiagnostics(result *assembler.AssembledResult) {
	for _, diag := range result.Diagnostics {
		severity := "error"
		if diag.Severity == assembler.Warning {
			severity = "warning"
		}
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s: %s\n",
			result.FileName, diag.Line(), diag.Range.Start.Char+1, severity, diag.Message)
		if diag.SourceText != "" {
			fmt.Fprintf(os.Stderr, "\t%s\n", diag.SourceText)
		}
	}
}
