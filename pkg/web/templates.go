package web

// indexHTML is the single-page control panel. It polls nothing itself:
// state arrives over /ws/status and plots are re-fetched per cycle.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Rover Dashboard</title>
  <style>
    :root { color-scheme: light; --ink:#1b1b1b; --muted:#6b6b6b; --card:#fff; --border:#e1e4ea; --accent:#1f77b4; }
    * { box-sizing: border-box; }
    body { margin:0; font-family: ui-sans-serif, system-ui, -apple-system, "Segoe UI", Roboto, Arial, sans-serif; color:var(--ink); background:#f5f6f8; display:flex; min-height:100vh; }
    aside { width:260px; background:#fff; border-right:1px solid var(--border); padding:20px; }
    main { flex:1; padding:24px 32px; }
    h1 { margin:0 0 4px; font-size:24px; }
    h2 { font-size:15px; margin:22px 0 10px; color:var(--muted); text-transform:uppercase; letter-spacing:.5px; }
    h3 { margin:24px 0 8px; font-size:17px; }
    .muted { color:var(--muted); font-size:13px; }
    .toggle { display:flex; align-items:center; gap:10px; cursor:pointer; }
    .pad { display:grid; grid-template-columns:repeat(3, 1fr); gap:6px; }
    button { background:var(--accent); color:#fff; border:none; padding:9px 6px; border-radius:6px; cursor:pointer; font-weight:600; }
    button:disabled { opacity:.45; cursor:not-allowed; }
    button.stop { background:#d62728; width:100%; margin-top:8px; }
    button.secondary { background:#6b7280; width:100%; margin-top:24px; }
    .card { background:var(--card); border:1px solid var(--border); border-radius:10px; padding:14px; }
    .stats { display:flex; gap:14px; flex-wrap:wrap; margin:14px 0; }
    .stat b { display:block; font-size:20px; }
    img { max-width:100%; display:block; }
    pre { margin:0; font-size:13px; overflow:auto; max-height:320px; }
    #error { display:none; background:#fdecea; color:#8a1c1c; border:1px solid #f5c2c0; padding:10px 14px; border-radius:8px; margin:12px 0; }
    #manual[hidden] { display:none; }
  </style>
</head>
<body>
  <aside>
    <h1>Rover Controls</h1>
    <div class="muted" id="session">session: &ndash;</div>

    <h2>Mode Selection</h2>
    <label class="toggle"><input type="checkbox" id="auto"> Auto Mode</label>

    <div id="manual" hidden>
      <h2>Manual Drive</h2>
      <div class="pad">
        <span></span><button data-dir="forward">&uarr; Forward</button><span></span>
        <button data-dir="left">&larr; Left</button><span></span><button data-dir="right">&rarr; Right</button>
        <span></span><button data-dir="backward">&darr; Backward</button><span></span>
      </div>
      <button class="stop" id="stop">&#9632; Stop</button>
    </div>

    <button class="secondary" id="restart">New session</button>
  </aside>

  <main>
    <h1>Rover Dashboard</h1>
    <div id="error"></div>
    <div class="stats">
      <div class="card stat"><span class="muted">Position</span><b id="pos">&ndash;</b></div>
      <div class="card stat"><span class="muted">Battery</span><b id="battery">&ndash;</b></div>
      <div class="card stat"><span class="muted">Refresh</span><b id="cycle">0</b></div>
      <div class="card stat"><span class="muted">Last action</span><b id="action">&ndash;</b></div>
    </div>

    <h3>Rover Movement Map</h3>
    <div class="card"><img id="path" alt="rover path"></div>

    <h3>Battery Level Over Time</h3>
    <div class="card"><img id="batteryChart" alt="battery chart"></div>

    <h3>Sensor Data</h3>
    <div class="card"><pre id="sensor">{}</pre></div>
  </main>

  <script>
    const $ = (id) => document.getElementById(id);

    async function post(url, body) {
      const opts = { method: "POST" };
      if (body !== undefined) {
        opts.headers = { "Content-Type": "application/json" };
        opts.body = JSON.stringify(body);
      }
      const res = await fetch(url, opts);
      if (!res.ok) {
        const data = await res.json().catch(() => ({}));
        showError(data.error || res.statusText);
      }
    }

    function showError(msg) {
      const el = $("error");
      el.textContent = msg || "";
      el.style.display = msg ? "block" : "none";
    }

    function render(v) {
      $("session").textContent = "session: " + (v.session_id || "none");
      $("auto").checked = v.auto_mode;
      $("manual").hidden = v.auto_mode;
      $("cycle").textContent = v.cycle;
      showError(v.last_error);

      const n = v.history && v.history.x ? v.history.x.length : 0;
      if (n > 0) {
        $("pos").textContent = "(" + v.position.x + ", " + v.position.y + ")";
        $("battery").textContent = v.battery + "%";
        $("path").src = "/api/plot/path.png?c=" + v.cycle + "-" + n;
        $("batteryChart").src = "/api/plot/battery.png?c=" + v.cycle + "-" + n;
      }
      $("action").textContent = v.last_action
        ? (v.last_action.kind === "move" ? "move " + v.last_action.direction : v.last_action.kind)
        : (v.last_command || "–");
      $("sensor").textContent = JSON.stringify(v.sensor || {}, null, 2);
    }

    function connect() {
      const proto = location.protocol === "https:" ? "wss://" : "ws://";
      const ws = new WebSocket(proto + location.host + "/ws/status");
      ws.onmessage = (ev) => render(JSON.parse(ev.data));
      ws.onclose = () => setTimeout(connect, 2000);
    }

    $("auto").addEventListener("change", (e) => post("/api/mode", { auto: e.target.checked }));
    document.querySelectorAll("[data-dir]").forEach((b) =>
      b.addEventListener("click", () => post("/api/move/" + b.dataset.dir)));
    $("stop").addEventListener("click", () => post("/api/stop"));
    $("restart").addEventListener("click", () => post("/api/session/restart"));

    fetch("/api/state").then((r) => r.json()).then(render);
    connect();
  </script>
</body>
</html>
`
