package emulator

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.gatech.edu/ECEInnovation/RV32I-Assembler/assembler"
)

// The emulator normally runs headless (the run subcommand and the package
// tests), but for development there needs to be a way to exercise programs
// interactively. This file hosts a web page on port 2035 with a console and the
// register file; the browser asks for a run over a websocket and the source
// file is reassembled on every request so edits are picked up.

const textBaseAddress = 0x0
const stackStartAddress = 0x7FFFFFF0
const heapStartAddress = 0x10000000
const standaloneRuntimeLimit = 1000000

type consoleMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type registersMessage struct {
	Type      string   `json:"type"`
	Registers []string `json:"registers"`
	ExitCode  int      `json:"exitCode"`
}

func runStandaloneEmulator(assemblyPath string, conn *websocket.Conn, emInst **EmulatorInstance) {
	fmt.Println("Running standalone emulator...")

	wsMutex := sync.Mutex{}
	sendConsole := func(text string) {
		messageBytes, e := json.Marshal(consoleMessage{Type: "console", Text: text})
		if e != nil {
			log.Printf("Could not marshal console message: %v", e)
			return
		}
		wsMutex.Lock()
		conn.WriteMessage(websocket.TextMessage, messageBytes)
		wsMutex.Unlock()
	}

	b, e := os.ReadFile(assemblyPath)
	if e != nil {
		sendConsole(fmt.Sprintf("Could not read assembly file: %v\n", e))
		return
	}

	assembleRes := assembler.Assemble(string(b))
	if assembleRes.HasErrors() {
		builder := strings.Builder{}
		builder.WriteByte('\n')
		for _, diag := range assembleRes.Diagnostics {
			builder.WriteString(fmt.Sprintf("\t%s:%d:%d: %s\n", filepath.Base(assemblyPath), diag.Range.Start.Line+1, diag.Range.Start.Char, diag.Message))
		}

		log.Printf("Could not assemble %s: %s\n", assemblyPath, builder.String())
		sendConsole(fmt.Sprintf("Could not assemble %s: %s\n", filepath.Base(assemblyPath), builder.String()))
		return
	}

	memoryImage := NewMemoryImage()
	for i, v := range assembleRes.ProgramText {
		memoryImage.WriteWord(textBaseAddress+uint32(i)*4, v)
	}
	globalPointer := textBaseAddress + uint32(len(assembleRes.ProgramText)*4)

	config := EmulatorConfig{
		StackStartAddress: stackStartAddress,
		GlobalDataAddress: globalPointer,
		HeapStartAddress:  heapStartAddress,
		Memory:            memoryImage,
		RuntimeErrorCallback: func(e RuntimeException) {
			sendConsole(fmt.Sprintf("Runtime exception at pc=0x%08X: %s\n", e.PC(), e.Message()))
		},
		StdOutCallback: func(b byte) {
			sendConsole(string(b))
		},
		RuntimeLimit: standaloneRuntimeLimit,
	}

	emulator := NewEmulator(config)
	*emInst = emulator

	emulator.Emulate(textBaseAddress)

	regs := emulator.GetRegisters()
	dump := make([]string, 0, len(regs))
	for i, v := range regs {
		dump = append(dump, fmt.Sprintf("%s (x%d) = 0x%08X", assembler.RegisterIndexToName[i], i, v))
	}
	messageBytes, e := json.Marshal(registersMessage{Type: "registers", Registers: dump, ExitCode: emulator.GetExitCode()})
	if e != nil {
		log.Printf("Could not marshal register message: %v", e)
		return
	}
	wsMutex.Lock()
	conn.WriteMessage(websocket.TextMessage, messageBytes)
	wsMutex.Unlock()

	time.Sleep(100 * time.Millisecond)
	fmt.Printf("Emulator completed with exit code %d after %d instructions\n",
		emulator.GetExitCode(), emulator.GetTotalInstructionsExecuted())
}

// RunStandaloneWebserver serves the web shell on port 2035. Commands over the
// websocket:
//   - run: assemble the source file and run it
//   - stop: terminate the running emulator
func RunStandaloneWebserver(assemblyPath string) {
	var upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	handler := func(w http.ResponseWriter, r *http.Request) {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println(err)
			return
		}

		var emInst *EmulatorInstance

		// listen on conn for messages
		for {
			_, messageBytes, err := conn.ReadMessage()
			if err != nil {
				log.Println("read:", err)
				if emInst != nil {
					emInst.Terminate()
				}
				break
			}

			message := make(map[string]interface{})
			err = json.Unmarshal(messageBytes, &message)
			if err != nil {
				log.Println("json:", err)
				break
			}

			mType, _ := message["type"].(string)
			switch mType {
			case "run":
				go runStandaloneEmulator(assemblyPath, conn, &emInst)
			case "stop":
				if emInst != nil {
					emInst.Terminate()
				}
			default:
				log.Printf("Unknown message type: %s", mType)
			}
		}
	}

	http.HandleFunc("/ws", handler)
	http.HandleFunc("/", handleGetPage)
	log.Println("Connect to the emulator at http://localhost:2035")
	http.ListenAndServe(":2035", nil)
}

func handleGetPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(htmlPage))
}

var htmlPage = `<html>
<head>
	<title>RV32I Emulator</title>
</head>
<body style="background-color: #1E1E1E;">
	<h1 style="color: white; display: inline-block;">RV32I Emulator</h1>
	<button id="runButton" style="margin-left: 50px; height: 40px; width: 80px;">RUN</button>
	<button id="stopButton" style="margin-left: 10px; height: 40px; width: 80px;">STOP</button>
	<h2 style="color: white;">Console</h2>
	<div style="width: 980px; padding: 10px; color: white; font-size: 1.2em; font-family: monospace; background-color: black; height: 300px; overflow-y: auto; border: 2px solid white;" id="console"></div>
	<h2 style="color: white;">Registers</h2>
	<div style="width: 980px; padding: 10px; color: white; font-family: monospace; background-color: black; border: 2px solid white; columns: 4;" id="registers"></div>

	<script>
		// Connect to the websocket
		var socket = new WebSocket("ws://localhost:2035/ws");

		var consoleText = "";

		// When the socket is opened, listen for messages
		socket.onopen = function() {
			socket.onmessage = function(event) {
				var data = JSON.parse(event.data);
				if (data.type == "console") {
					consoleText += data.text.replaceAll("\n", "<br/>");
					document.getElementById("console").innerHTML = consoleText;
				} else if (data.type == "registers") {
					var html = "";
					for (var i = 0; i < data.registers.length; i++) {
						html += data.registers[i] + "<br/>";
					}
					document.getElementById("registers").innerHTML = html;
					consoleText += "<br/>exit code " + data.exitCode + "<br/>";
					document.getElementById("console").innerHTML = consoleText;
				}
			};
		};

		// when the socket closes, try to reconnect every 3 seconds
		socket.onclose = function() {
			setTimeout(function() {
				socket = new WebSocket("ws://localhost:2035/ws");
			}, 3000);
		};

		document.getElementById("runButton").onclick = function() {
			consoleText = "";
			document.getElementById("console").innerHTML = "";
			document.getElementById("registers").innerHTML = "";
			socket.send(JSON.stringify({ type: "run" }));
		};

		document.getElementById("stopButton").onclick = function() {
			socket.send(JSON.stringify({ type: "stop" }));
		};
	</script>
</body>
</html>`
