package hotreload

// ClientScript connects to the dev server websocket and re-imports updated
// template modules. Its path is served by the dev server.
const ClientScript = `(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function (msg) {
    var ev = JSON.parse(msg.data);
    if (ev.type === "rerender" && ev.module) {
      import("/" + ev.module + "?t=" + Date.now()).catch(function () { location.reload(); });
    } else if (ev.type === "reload" || ev.type === "removed") {
      location.reload();
    } else if (ev.type === "error") {
      console.error("[sfcloader] " + ev.file + "\n" + (ev.errors || []).join("\n"));
    }
  };
  ws.onclose = function () {
    setTimeout(function () { location.reload(); }, 1000);
  };
})();
`

// ClientPath is where the dev server serves ClientScript.
const ClientPath = "/__sfcloader/client.js"
