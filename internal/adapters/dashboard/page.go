package dashboard

// indexPage polls /api/stats and re-renders the table every 10 seconds.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>clawfarm</title>
<style>
  body { font-family: monospace; background: #10141a; color: #d8dee9; margin: 2rem; }
  h1 { font-size: 1.2rem; color: #88c0d0; }
  table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
  th, td { padding: 0.35rem 0.7rem; text-align: left; border-bottom: 1px solid #2e3440; }
  th { color: #81a1c1; }
  .completed { color: #a3be8c; }
  .farming { color: #ebcb8b; }
  .stopped, .idle { color: #bf616a; }
  #summary { margin-top: 0.5rem; color: #8fa3bf; }
</style>
</head>
<body>
<h1>clawfarm fleet</h1>
<div id="summary">loading&hellip;</div>
<table>
  <thead>
    <tr>
      <th>account</th><th>status</th><th>trust</th><th>cw</th><th>staked</th>
      <th>mines</th><th>moments</th><th>challenges</th><th>taken</th><th>runtime</th>
    </tr>
  </thead>
  <tbody id="accounts"></tbody>
</table>
<script>
async function refresh() {
  try {
    const res = await fetch('/api/stats');
    const snap = await res.json();
    const s = snap.summary;
    document.getElementById('summary').textContent =
      'run ' + snap.run_id + ' | ' + s.running + '/' + s.total_accounts + ' farming | ' +
      s.completed + ' completed | avg trust ' + s.avg_trust + ' | total CW ' + s.total_cw;
    const rows = (snap.accounts || []).map(a =>
      '<tr><td>' + a.id + '</td>' +
      '<td class="' + a.status + '">' + a.status + '</td>' +
      '<td>' + a.trust_score + (a.target_reached ? ' ✓' : ' (need ' + a.trust_needed + ')') + '</td>' +
      '<td>' + a.cw_balance + '</td>' +
      '<td>' + a.cw_staked + (a.stake_ok ? '' : ' !') + '</td>' +
      '<td>' + a.total_mines + '</td>' +
      '<td>' + a.moments_posted + '/' + (a.moments_posted + a.moments_remaining) + '</td>' +
      '<td>' + a.challenges_passed + '/' + a.challenges_failed + '</td>' +
      '<td>' + a.tokens_taken + '</td>' +
      '<td>' + a.runtime + '</td></tr>');
    document.getElementById('accounts').innerHTML = rows.join('');
  } catch (err) {
    document.getElementById('summary').textContent = 'stats unavailable: ' + err;
  }
}
refresh();
setInterval(refresh, 10000);
</script>
</body>
</html>
`
