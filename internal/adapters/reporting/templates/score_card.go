package templates

// ScoreCardHTML renders a reporting.ScoreCardData value.
const ScoreCardHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>CVSS 3.1 Score Card</title>
    <style>
        :root {
            --text-primary: #111827;
            --text-secondary: #6b7280;
            --accent: #2563eb;
            --border: #e5e7eb;
            --radius: 8px;
        }

        body {
            font-family: 'Inter', -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
            background: #f3f4f6;
            color: var(--text-primary);
            margin: 0;
            padding: 40px;
        }

        .container {
            max-width: 760px;
            margin: 0 auto;
            background: #fff;
            box-shadow: 0 10px 15px -3px rgba(0, 0, 0, 0.1);
            border-radius: 12px;
            overflow: hidden;
        }

        header {
            background: #1e293b;
            color: #fff;
            padding: 32px 40px;
            display: flex;
            justify-content: space-between;
            align-items: center;
            border-bottom: 4px solid var(--accent);
        }

        header h1 { margin: 0; font-size: 24px; }
        header .meta { font-size: 13px; color: #94a3b8; text-align: right; }

        .content { padding: 40px; }

        .score {
            display: flex;
            align-items: center;
            gap: 24px;
            margin-bottom: 32px;
        }

        .score-box {
            min-width: 120px;
            padding: 20px;
            border-radius: var(--radius);
            text-align: center;
            color: #fff;
        }

        .score-value { font-size: 40px; font-weight: 800; display: block; }
        .score-label { font-size: 13px; text-transform: uppercase; letter-spacing: 0.5px; }

        .vector {
            font-family: monospace;
            font-size: 15px;
            background: #f8fafc;
            border: 1px solid var(--border);
            border-radius: var(--radius);
            padding: 12px 16px;
            word-break: break-all;
        }

        table { width: 100%; border-collapse: collapse; font-size: 14px; }
        th {
            text-align: left;
            padding: 12px 16px;
            background: #f8fafc;
            color: var(--text-secondary);
            font-size: 12px;
            text-transform: uppercase;
            border-bottom: 1px solid var(--border);
        }
        td { padding: 12px 16px; border-bottom: 1px solid var(--border); }
        td.code { font-family: monospace; font-weight: 600; }

        footer {
            padding: 20px 40px;
            font-size: 12px;
            color: var(--text-secondary);
            border-top: 1px solid var(--border);
        }
    </style>
</head>
<body>
<div class="container">
    <header>
        <h1>CVSS 3.1 Score Card</h1>
        <div class="meta">Generated on {{.GeneratedAt.Format "Jan 02, 2006 15:04 MST"}}</div>
    </header>

    <div class="content">
        <div class="score">
            <div class="score-box" style="background: {{.Color}}">
                <span class="score-value">{{printf "%.1f" .Result.Score}}</span>
                <span class="score-label">{{.Result.Severity}}</span>
            </div>
            <div class="vector">{{.Result.Vector}}</div>
        </div>

        {{if .Rows}}
        <table>
            <thead>
                <tr><th>Metric</th><th>Value</th><th>Code</th></tr>
            </thead>
            <tbody>
                {{range .Rows}}
                <tr>
                    <td>{{.Name}}</td>
                    <td>{{.Value}}</td>
                    <td class="code">{{.Metric}}:{{.Code}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}
    </div>

    <footer>Scores follow the CVSS v3.1 base metric equations published by FIRST.</footer>
</div>
</body>
</html>
`
