package main

import "fmt"

// The host shims. Both provide the "system" import object: a 100-page
// memory, printInt/printString, readInt and readString0. readString0
// writes the line's bytes NUL-padded to a 4-byte boundary at the given
// heap pointer and returns the new heap pointer.

const jsImportObject = `function makeImports(readLine, print) {
  const mem = new WebAssembly.Memory({ initial: 100 });
  const bytes = new Uint8Array(mem.buffer);
  function cstring(ptr) {
    let end = ptr;
    while (bytes[end] !== 0) end++;
    return new TextDecoder("utf-8").decode(bytes.subarray(ptr, end));
  }
  function writeString(ptr, s) {
    const data = new TextEncoder().encode(s);
    bytes.set(data, ptr);
    let end = ptr + data.length;
    bytes[end++] = 0;
    while (end % 4 !== 0) bytes[end++] = 0;
    return end;
  }
  return {
    system: {
      mem: mem,
      printInt: (n) => { print(String(n | 0)); return 0; },
      printString: (p) => { print(cstring(p)); return 0; },
      readInt: () => {
        const line = readLine();
        const n = parseInt(line, 10);
        if (Number.isNaN(n)) throw new Error("readInt: invalid input: " + line);
        return n | 0;
      },
      readString0: (p) => writeString(p, readLine()),
    },
  };
}

function runMains(module, instance) {
  for (const exp of WebAssembly.Module.exports(module)) {
    if (exp.kind === "function" && exp.name.endsWith("_main")) {
      instance.exports[exp.name]();
    }
  }
}
`

func htmlLoader(name string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%[1]s</title></head>
<body>
<pre id="out"></pre>
<script>
%[2]s
const out = document.getElementById("out");
const print = (s) => { out.textContent += s + "\n"; };
const readLine = () => window.prompt("input:") || "";
fetch("wasmout/%[1]s.wasm")
  .then((r) => r.arrayBuffer())
  .then((buf) => WebAssembly.compile(buf))
  .then((module) =>
    WebAssembly.instantiate(module, makeImports(readLine, print)).then(
      (instance) => runMains(module, instance)))
  .catch((e) => print(String(e)));
</script>
</body>
</html>
`, name, jsImportObject)
}

func nodeRunner(name string) string {
	return fmt.Sprintf(`// Runs %[1]s.wasm under nodejs: node %[1]s.js < input
const fs = require("fs");
const path = require("path");

%[2]s
let lines = [];
try {
  lines = fs.readFileSync(0, "utf-8").split("\n");
} catch (e) {
  // no stdin available
}
let lineNo = 0;
const readLine = () => (lineNo < lines.length ? lines[lineNo++] : "");
const print = (s) => process.stdout.write(s + "\n");

const buf = fs.readFileSync(path.join(__dirname, "%[1]s.wasm"));
const module = new WebAssembly.Module(buf);
const instance = new WebAssembly.Instance(module, makeImports(readLine, print));
runMains(module, instance);
`, name, jsImportObject)
}
