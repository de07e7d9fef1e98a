package config

// Starter is the commented file written by `heatsheet init`.
const Starter = `# heatsheet configuration

match:
  name: "New match"
  teams: 15
  heats: 15
  jams: 105
  jam_duration: 120 # seconds
  # team_names: [Rollers, Blockers]

assign:
  teams_per_heat: 4
  timeout: 60s
  # seed: 42 # fixed seed for a repeatable assignment

server:
  addr: ":8080"
  allowed_origins: []
  autosave: true

archive:
  path: heatsheet.db

# Uploads use HEATSHEET_R2_ACCESS_KEY_ID and HEATSHEET_R2_SECRET_ACCESS_KEY.
publish:
  account_id: ""
  bucket: ""
  public_base_url: ""
  prefix: matches

log:
  level: info # debug, info, warn, error
  format: text # text or json
`
