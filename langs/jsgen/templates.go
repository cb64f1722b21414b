package jsgen

// jsModuleTemplate renders one CommonJS module per queries file, one async
// function per query. The SQL keeps its template markers: conditional
// blocks are resolved at call time from the arguments actually supplied.
const jsModuleTemplate = `// Code generated by team-query. DO NOT EDIT.
// Source: {{ .SourcePath }}
"use strict";

const {
  cleanupSql,
  convertNamedParams,
  ensureConnection,
  monitorQueryPerformance,
  processConditionalBlocks,
} = require("./utils");

{{ range .Functions }}
/**
 * {{ if .Description }}{{ .Description }}{{ else }}Execute the {{ .Name }} query.{{ end }}
 *
 * @param {Object} connection - database connection, or an open transaction handle
{{- range .Params }}
 * @param {{"{"}}{{ .JSType }}{{"}"}} [{{ .LocalName }}] - {{ if .Description }}{{ .Description }}{{ else }}value for :{{ .SQLName }}{{ end }}
{{- end }}
 * @returns {{"{"}}{{ .ReturnType }}{{"}"}} {{ .ReturnDoc }}
 */
async function {{ .Name }}(connection{{ range .Params }}, {{ .LocalName }} = null{{ end }}) {
  let sql = ` + "`{{ .SQL }}`" + `;
  const provided = {};
{{- range .Params }}
  if ({{ .LocalName }} !== null && {{ .LocalName }} !== undefined) {
    provided["{{ .SQLName }}"] = {{ .LocalName }};
  }
{{- end }}
  sql = processConditionalBlocks(sql, new Set(Object.keys(provided)));
  sql = cleanupSql(sql);
  const { text, values } = convertNamedParams(sql, provided);
  const rows = await monitorQueryPerformance("{{ .Name }}", async () => {
    const client = ensureConnection(connection);
    const result = await client.query(text, values);
    return result.rows || [];
  });
{{- if .SingleRow }}
  return rows.length > 0 ? rows[0] : null;
{{- else }}
  return rows;
{{- end }}
}
{{ end }}
module.exports = {
{{- range .Functions }}
  {{ .Name }},
{{- end }}
};
`

// jsUtilsTemplate is the shared runtime module, rendered exactly once per
// output tree. Its conditional block scanner restates the generator's own
// scan so generation-time and call-time semantics cannot drift.
const jsUtilsTemplate = `// Code generated by team-query. DO NOT EDIT.
// Shared runtime helpers for the generated query modules.
"use strict";

const PLACEHOLDER_STYLE = "{{ .PlaceholderStyle }}";

const LEVELS = { DEBUG: 10, INFO: 20, WARN: 30, ERROR: 40 };

/**
 * Minimal leveled logger with a pluggable sink. The default sink writes to
 * stdout via console.log. A replacement sink may be a callable taking
 * (level, message) or a console-like object with debug/info/warn/error.
 */
class Logger {
  constructor() {
    this.level = "INFO";
    this.sink = null;
  }

  setLevel(level) {
    const normalized = String(level).toUpperCase();
    if (!(normalized in LEVELS)) {
      throw new Error("unknown log level: " + level);
    }
    this.level = normalized;
  }

  setSink(sink) {
    this.sink = sink;
  }

  emit(level, message) {
    if (LEVELS[level] < LEVELS[this.level]) {
      return;
    }
    if (this.sink === null) {
      console.log("[" + level + "] " + message);
      return;
    }
    const method = level === "WARN" ? "warn" : level.toLowerCase();
    if (typeof this.sink[method] === "function") {
      this.sink[method](message);
    } else if (typeof this.sink === "function") {
      this.sink(level, message);
    }
  }

  debug(message) {
    this.emit("DEBUG", message);
  }

  info(message) {
    this.emit("INFO", message);
  }

  warn(message) {
    this.emit("WARN", message);
  }

  error(message) {
    this.emit("ERROR", message);
  }
}

const logger = new Logger();

/** Replace the process-wide log sink. Takes effect immediately. */
function setLogger(sink) {
  logger.setSink(sink);
}

/** Set the process-wide log level. Takes effect immediately. */
function setLogLevel(level) {
  logger.setLevel(level);
}

let _monitoringMode = "none";

/** Set the monitoring mode: "none" disables timing, "basic" logs it. */
function configureMonitoring(mode) {
  _monitoringMode = mode;
}

/**
 * Run executor, logging its elapsed time when monitoring is enabled.
 * Driver errors propagate unchanged; the elapsed time is still logged for
 * failed queries.
 */
async function monitorQueryPerformance(name, executor) {
  if (_monitoringMode === "none") {
    return executor();
  }
  const start = process.hrtime.bigint();
  try {
    return await executor();
  } finally {
    const elapsedMs = Number(process.hrtime.bigint() - start) / 1e6;
    logger.debug("query " + name + " executed in " + elapsedMs.toFixed(3) + "ms");
  }
}

const IDENT_PATTERN = /^[A-Za-z_][A-Za-z0-9_]*$/;

/** Keep -- {name} ... -- } blocks whose name was provided. */
function processConditionalBlocks(sql, providedParams) {
  const result = [];
  let index = 0;
  for (;;) {
    const start = sql.indexOf("-- {", index);
    if (start < 0) {
      result.push(sql.slice(index));
      break;
    }
    const brace = sql.indexOf("}", start + 4);
    if (brace < 0) {
      result.push(sql.slice(index));
      break;
    }
    const name = sql.slice(start + 4, brace).trim();
    const end = sql.indexOf("-- }", brace + 1);
    if (end < 0 || !IDENT_PATTERN.test(name)) {
      result.push(sql.slice(index, brace + 1));
      index = brace + 1;
      continue;
    }
    result.push(sql.slice(index, start));
    if (providedParams.has(name)) {
      result.push(sql.slice(brace + 1, end));
    }
    index = end + 4;
  }
  return result.join("");
}

/** Rewrite a lone WHERE 1=1 sentinel to WHERE TRUE. */
function cleanupSql(sql) {
  return sql.replace(/WHERE\s+1\s*=\s*1/gi, (match, offset) => {
    const rest = sql.slice(offset + match.length).replace(/^\s+/, "");
    if (/^AND\b/i.test(rest)) {
      return match;
    }
    return "WHERE TRUE";
  });
}

/** Accept a raw connection, a pool, or an open transaction client. */
function ensureConnection(connection) {
  if (connection && typeof connection.query === "function") {
    return connection;
  }
  throw new TypeError("unsupported connection handle");
}

const WILDCARD_PATTERN = /(^|[^:]):([A-Za-z_][A-Za-z0-9_]*)/g;

/** Convert :name wildcards to positional placeholders plus ordered args. */
function convertNamedParams(sql, params) {
  const order = [];
  const occurrences = [];
  const text = sql.replace(WILDCARD_PATTERN, (match, prefix, name) => {
    if (!order.includes(name)) {
      order.push(name);
    }
    occurrences.push(name);
    if (PLACEHOLDER_STYLE === "numbered") {
      return prefix + "$" + (order.indexOf(name) + 1);
    }
    if (PLACEHOLDER_STYLE === "qmark") {
      return prefix + "?";
    }
    return prefix + "%s";
  });
  const needed = PLACEHOLDER_STYLE === "numbered" ? order : occurrences;
  const values = needed.map((name) => {
    if (!(name in params)) {
      throw new Error("missing value for parameter: " + name);
    }
    return params[name];
  });
  return { text, values };
}

module.exports = {
  Logger,
  logger,
  setLogger,
  setLogLevel,
  configureMonitoring,
  monitorQueryPerformance,
  processConditionalBlocks,
  cleanupSql,
  ensureConnection,
  convertNamedParams,
};
`

// jsIndexTemplate is the manifest module re-exporting every generated
// function, grouped by originating file.
const jsIndexTemplate = `// Code generated by team-query. DO NOT EDIT.
"use strict";

{{ range .Modules }}const {{ .Module }} = require("./{{ .Module }}");
{{ end }}const utils = require("./utils");

module.exports = {
{{- range .Modules }}
  {{ .Module }},
{{- end }}
  utils,
{{- range .Modules }}
{{- $mod := .Module }}
{{- range .Functions }}
  {{ . }}: {{ $mod }}.{{ . }},
{{- end }}
{{- end }}
  setLogger: utils.setLogger,
  setLogLevel: utils.setLogLevel,
  configureMonitoring: utils.configureMonitoring,
};
`
