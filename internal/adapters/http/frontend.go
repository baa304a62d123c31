package http

import (
	"net/http"
)

// frontendHTML is the embedded HTML for the record table frontend.
// Mobile-first, responsive design with pure CSS.
const frontendHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Signum - Survey Records</title>
    <style>
        :root {
            --primary: #2563eb;
            --primary-dark: #1d4ed8;
            --success: #16a34a;
            --error: #dc2626;
            --warning: #d97706;
            --bg: #f8fafc;
            --card: #ffffff;
            --text: #1e293b;
            --text-muted: #64748b;
            --border: #e2e8f0;
            --radius: 8px;
            --shadow: 0 1px 3px rgba(0,0,0,0.1);
        }

        * {
            box-sizing: border-box;
            margin: 0;
            padding: 0;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.5;
            min-height: 100vh;
        }

        .container {
            max-width: 1100px;
            margin: 0 auto;
            padding: 1rem;
        }

        header {
            text-align: center;
            padding: 1.5rem 0;
            border-bottom: 1px solid var(--border);
            margin-bottom: 1.5rem;
        }

        header h1 {
            font-size: 1.5rem;
            font-weight: 600;
            color: var(--primary);
        }

        header p {
            color: var(--text-muted);
            font-size: 0.875rem;
            margin-top: 0.25rem;
        }

        .card {
            background: var(--card);
            border-radius: var(--radius);
            box-shadow: var(--shadow);
            padding: 1.25rem;
            margin-bottom: 1rem;
        }

        .card-title {
            font-size: 0.875rem;
            font-weight: 600;
            color: var(--text-muted);
            text-transform: uppercase;
            letter-spacing: 0.05em;
            margin-bottom: 1rem;
        }

        .status-row {
            display: flex;
            align-items: center;
            flex-wrap: wrap;
            gap: 0.75rem;
            margin-bottom: 1rem;
        }

        .badge {
            display: inline-flex;
            align-items: center;
            padding: 0.125rem 0.625rem;
            font-size: 0.75rem;
            font-weight: 500;
            border-radius: 9999px;
            background: #dbeafe;
            color: var(--primary);
        }

        .badge-success { background: #dcfce7; color: var(--success); }
        .badge-error { background: #fef2f2; color: var(--error); }
        .badge-warning { background: #fef3c7; color: var(--warning); }

        .progress {
            flex: 1;
            min-width: 160px;
            height: 8px;
            background: var(--border);
            border-radius: 4px;
            overflow: hidden;
        }

        .progress-bar {
            height: 100%;
            width: 0;
            background: var(--primary);
            transition: width 0.3s;
        }

        .btn {
            display: inline-flex;
            align-items: center;
            justify-content: center;
            padding: 0.5rem 1rem;
            font-size: 0.875rem;
            font-weight: 500;
            color: white;
            background: var(--primary);
            border: none;
            border-radius: var(--radius);
            cursor: pointer;
            transition: background-color 0.15s;
        }

        .btn:hover { background: var(--primary-dark); }
        .btn:disabled { background: var(--text-muted); cursor: not-allowed; }

        .btn-secondary {
            background: var(--card);
            color: var(--text);
            border: 1px solid var(--border);
        }

        .btn-secondary:hover { background: var(--bg); }
        .btn-danger { background: var(--error); }

        .btn-row {
            display: flex;
            flex-wrap: wrap;
            gap: 0.5rem;
        }

        .error {
            background: #fef2f2;
            border: 1px solid #fecaca;
            color: var(--error);
            padding: 0.75rem 1rem;
            border-radius: var(--radius);
            font-size: 0.875rem;
            margin-bottom: 1rem;
            display: none;
        }

        .error.active { display: block; }

        .table-wrap { overflow-x: auto; }

        table {
            width: 100%;
            font-size: 0.8125rem;
            border-collapse: collapse;
        }

        th, td {
            text-align: left;
            padding: 0.5rem 0.625rem;
            border-bottom: 1px solid var(--border);
            white-space: nowrap;
        }

        th {
            font-weight: 500;
            color: var(--text-muted);
        }

        td.num {
            font-family: 'SF Mono', Monaco, monospace;
            font-size: 0.75rem;
        }

        input[type="checkbox"] { cursor: pointer; }

        .no-records {
            text-align: center;
            padding: 2rem;
            color: var(--text-muted);
        }

        .overlay-link {
            color: var(--primary);
            text-decoration: none;
        }

        .overlay-link:hover { text-decoration: underline; }

        footer {
            text-align: center;
            padding: 1.5rem 0;
            color: var(--text-muted);
            font-size: 0.75rem;
            border-top: 1px solid var(--border);
            margin-top: 2rem;
        }

        footer a {
            color: var(--primary);
            text-decoration: none;
        }

        footer a:hover { text-decoration: underline; }

        @media (min-width: 640px) {
            .container { padding: 2rem; }
            header { padding: 2rem 0; }
            header h1 { font-size: 1.75rem; }
            .card { padding: 1.5rem; }
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Signum</h1>
            <p>Provider Marking Survey Records</p>
        </header>

        <div class="card">
            <h2 class="card-title">Batch</h2>
            <div class="status-row">
                <span class="badge" id="stateBadge">idle</span>
                <span id="progressText" class="badge badge-warning" style="display:none"></span>
                <div class="progress"><div class="progress-bar" id="progressBar"></div></div>
            </div>
            <div class="btn-row">
                <button class="btn" id="runBtn">Run</button>
                <button class="btn btn-danger" id="cancelBtn" disabled>Cancel</button>
                <button class="btn btn-secondary" id="refreshBtn">Refresh</button>
                <a class="btn btn-secondary" href="/api/v1/records/export.csv" download>Export CSV</a>
            </div>
        </div>

        <div class="error" id="error"></div>

        <div class="card">
            <h2 class="card-title">Records</h2>
            <div class="table-wrap">
                <table>
                    <thead>
                        <tr id="headRow">
                            <th>ID</th>
                            <th>Image</th>
                            <th>Longitude</th>
                            <th>Latitude</th>
                            <th>Subdistrict</th>
                        </tr>
                    </thead>
                    <tbody id="recordRows"></tbody>
                </table>
            </div>
            <div class="no-records" id="noRecords">No records yet. Stage images and run a batch.</div>
        </div>

        <footer>
            <a href="/docs">API Documentation</a> &middot;
            <a href="/openapi.json">OpenAPI Spec</a> &middot;
            <a href="/health">Health Status</a>
        </footer>
    </div>

    <script>
        (function() {
            const stateBadge = document.getElementById('stateBadge');
            const progressBar = document.getElementById('progressBar');
            const progressText = document.getElementById('progressText');
            const runBtn = document.getElementById('runBtn');
            const cancelBtn = document.getElementById('cancelBtn');
            const refreshBtn = document.getElementById('refreshBtn');
            const error = document.getElementById('error');
            const headRow = document.getElementById('headRow');
            const recordRows = document.getElementById('recordRows');
            const noRecords = document.getElementById('noRecords');

            let classes = [];
            let pollTimer = null;

            function showError(message) {
                error.textContent = message;
                error.classList.add('active');
            }

            function hideError() {
                error.classList.remove('active');
            }

            async function api(url, options) {
                const response = await fetch(url, options);
                if (!response.ok) {
                    let message = 'Request failed';
                    try {
                        const data = await response.json();
                        message = data.message || data.error || message;
                    } catch (parseErr) {
                        // Response could not be parsed as JSON
                    }
                    throw new Error(message);
                }
                return response.json();
            }

            async function refreshStatus() {
                const status = await api('/api/v1/batch/status');
                stateBadge.textContent = status.state;
                stateBadge.className = 'badge' +
                    (status.state === 'completed' ? ' badge-success' :
                     status.state === 'failed' ? ' badge-error' :
                     status.state === 'running' ? ' badge-warning' : '');

                const running = status.state === 'running';
                runBtn.disabled = running;
                cancelBtn.disabled = !running;

                if (status.total > 0) {
                    progressBar.style.width = Math.round(100 * status.processed / status.total) + '%';
                    progressText.textContent = status.processed + ' / ' + status.total;
                    progressText.style.display = '';
                } else {
                    progressBar.style.width = '0';
                    progressText.style.display = 'none';
                }

                if (running && !pollTimer) {
                    pollTimer = setInterval(refresh, 1000);
                } else if (!running && pollTimer) {
                    clearInterval(pollTimer);
                    pollTimer = null;
                }
            }

            async function refreshRecords() {
                const data = await api('/api/v1/records');
                const records = data.records || [];

                if (records.length > 0 && classes.length === 0) {
                    classes = Object.keys(records[0].detections).sort();
                    classes.forEach(function(cls) {
                        const th = document.createElement('th');
                        th.textContent = cls;
                        headRow.appendChild(th);
                    });
                    const actions = document.createElement('th');
                    headRow.appendChild(actions);
                }

                recordRows.innerHTML = '';
                noRecords.style.display = records.length === 0 ? '' : 'none';

                records.forEach(function(rec) {
                    const tr = document.createElement('tr');
                    tr.appendChild(cell(rec.id));
                    tr.appendChild(rec.has_overlay
                        ? linkCell(rec.image_name, '/api/v1/records/' + rec.id + '/overlay?format=png')
                        : cell(rec.image_name));
                    tr.appendChild(cell(rec.longitude.toFixed(6), 'num'));
                    tr.appendChild(cell(rec.latitude.toFixed(6), 'num'));
                    tr.appendChild(cell(rec.subdistrict));

                    classes.forEach(function(cls) {
                        const td = document.createElement('td');
                        const box = document.createElement('input');
                        box.type = 'checkbox';
                        box.checked = !!rec.detections[cls];
                        box.addEventListener('change', function() {
                            toggle(rec.id, cls, box.checked);
                        });
                        td.appendChild(box);
                        tr.appendChild(td);
                    });

                    const td = document.createElement('td');
                    const del = document.createElement('button');
                    del.className = 'btn btn-secondary';
                    del.textContent = 'Delete';
                    del.addEventListener('click', function() {
                        removeRecord(rec.id);
                    });
                    td.appendChild(del);
                    tr.appendChild(td);

                    recordRows.appendChild(tr);
                });
            }

            function cell(text, cls) {
                const td = document.createElement('td');
                if (cls) td.className = cls;
                td.textContent = text;
                return td;
            }

            function linkCell(text, href) {
                const td = document.createElement('td');
                const a = document.createElement('a');
                a.className = 'overlay-link';
                a.href = href;
                a.target = '_blank';
                a.textContent = text;
                td.appendChild(a);
                return td;
            }

            async function toggle(id, cls, value) {
                hideError();
                try {
                    await api('/api/v1/records/' + id + '/detections', {
                        method: 'PATCH',
                        headers: { 'Content-Type': 'application/json' },
                        body: JSON.stringify({ class: cls, value: value })
                    });
                } catch (err) {
                    showError(err.message);
                    refreshRecords();
                }
            }

            async function removeRecord(id) {
                hideError();
                try {
                    await api('/api/v1/records/' + id, { method: 'DELETE' });
                    await refreshRecords();
                } catch (err) {
                    showError(err.message);
                }
            }

            runBtn.addEventListener('click', async function() {
                hideError();
                try {
                    await api('/api/v1/batch/run', { method: 'POST' });
                    await refresh();
                } catch (err) {
                    showError(err.message);
                }
            });

            cancelBtn.addEventListener('click', async function() {
                hideError();
                try {
                    await api('/api/v1/batch/cancel', { method: 'POST' });
                    await refresh();
                } catch (err) {
                    showError(err.message);
                }
            });

            refreshBtn.addEventListener('click', refresh);

            async function refresh() {
                hideError();
                try {
                    await refreshStatus();
                    await refreshRecords();
                } catch (err) {
                    showError(err.message);
                }
            }

            refresh();
        })();
    </script>
</body>
</html>`

// handleFrontend serves the record table frontend.
func (s *Server) handleFrontend(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(frontendHTML))
}
