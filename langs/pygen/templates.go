package pygen

// pythonModuleTemplate renders one module per queries file, one function
// per query. The SQL keeps its template markers: conditional blocks are
// resolved at call time from the arguments that were actually supplied.
const pythonModuleTemplate = `"""Generated by team-query. DO NOT EDIT.

Source: {{ .SourcePath }}
"""
{{- range .Imports }}
{{ . }}
{{- end }}

from .utils import (
    SQLParser,
    convert_named_params,
    ensure_connection,
    monitor_query_performance,
)

{{ range .Functions }}
def {{ .Name }}(conn{{ range .Params }}, {{ .Name }}: {{ .TypeHint }} = None{{ end }}) -> {{ .ReturnType }}:
    """{{ if .Description }}{{ .Description }}{{ else }}Execute the {{ .Name }} query.{{ end }}

    Args:
        conn: database connection, or an open transaction handle
{{- range .Params }}
        {{ .Name }}: {{ if .Description }}{{ .Description }}{{ else }}value for :{{ .SQLName }}{{ end }}; omit to leave optional blocks out
{{- end }}
    """
    sql = """{{ .SQL }}
"""
    provided = {}
{{- range .Params }}
    if {{ .Name }} is not None:
        provided["{{ .SQLName }}"] = {{ .Name }}
{{- end }}
    sql = SQLParser.process_conditional_blocks(sql, set(provided))
    sql = SQLParser.cleanup_sql(sql)
    sql, args = convert_named_params(sql, provided)

    def _execute():
        cursor = ensure_connection(conn).cursor()
        cursor.execute(sql, args)
        if cursor.description is None:
            return []
        columns = [column[0] for column in cursor.description]
        return [dict(zip(columns, row)) for row in cursor.fetchall()]

    rows = monitor_query_performance("{{ .Name }}", _execute)
{{- if .SingleRow }}
    return rows[0] if rows else None
{{- else }}
    return rows
{{- end }}

{{ end -}}
`

// pythonUtilsTemplate is the shared runtime module, rendered exactly once
// per output tree. Its conditional block scanner restates the generator's
// own scan so generation-time and call-time semantics cannot drift.
const pythonUtilsTemplate = `"""Shared runtime helpers generated by team-query. DO NOT EDIT."""
import re
import time

_PLACEHOLDER_STYLE = "{{ .PlaceholderStyle }}"

_LEVELS = {"DEBUG": 10, "INFO": 20, "WARN": 30, "ERROR": 40}


class Logger:
    """Minimal leveled logger with a pluggable sink.

    The default sink prints to stdout. A replacement sink may be a
    callable taking (level, message) or a logging.Logger-like object
    exposing debug/info/warning/error methods.
    """

    def __init__(self):
        self._level = "INFO"
        self._sink = None

    def set_level(self, level):
        level = str(level).upper()
        if level not in _LEVELS:
            raise ValueError("unknown log level: %s" % level)
        self._level = level

    def set_sink(self, sink):
        self._sink = sink

    def _emit(self, level, message):
        if _LEVELS[level] < _LEVELS[self._level]:
            return
        sink = self._sink
        if sink is None:
            print("[%s] %s" % (level, message))
            return
        method = getattr(sink, "warning" if level == "WARN" else level.lower(), None)
        if callable(method):
            method(message)
        else:
            sink(level, message)

    def debug(self, message):
        self._emit("DEBUG", message)

    def info(self, message):
        self._emit("INFO", message)

    def warn(self, message):
        self._emit("WARN", message)

    def error(self, message):
        self._emit("ERROR", message)


logger = Logger()


def set_logger(sink):
    """Replace the process-wide log sink. Takes effect immediately."""
    logger.set_sink(sink)


def set_log_level(level):
    """Set the process-wide log level. Takes effect immediately."""
    logger.set_level(level)


_monitoring_mode = "none"


def configure_monitoring(mode):
    """Set the monitoring mode: "none" disables timing, "basic" logs it."""
    global _monitoring_mode
    _monitoring_mode = mode


def monitor_query_performance(name, executor):
    """Run executor, logging its elapsed time when monitoring is enabled.

    Driver errors propagate unchanged; the elapsed time is still logged
    for failed queries.
    """
    if _monitoring_mode == "none":
        return executor()
    start = time.perf_counter()
    try:
        return executor()
    finally:
        elapsed = time.perf_counter() - start
        logger.debug("query %s executed in %.3fs" % (name, elapsed))


class SQLParser:
    """Call-time counterpart of the generator's template scanner."""

    @staticmethod
    def process_conditional_blocks(sql, provided_params):
        """Keep -- {name} ... -- } blocks whose name was provided."""
        result = []
        index = 0
        while True:
            start = sql.find("-- {", index)
            if start < 0:
                result.append(sql[index:])
                break
            brace = sql.find("}", start + 4)
            if brace < 0:
                result.append(sql[index:])
                break
            name = sql[start + 4:brace].strip()
            end = sql.find("-- }", brace + 1)
            if end < 0 or not re.match(r"^[A-Za-z_][A-Za-z0-9_]*$", name):
                result.append(sql[index:brace + 1])
                index = brace + 1
                continue
            result.append(sql[index:start])
            if name in provided_params:
                result.append(sql[brace + 1:end])
            index = end + 4
        return "".join(result)

    @staticmethod
    def cleanup_sql(sql):
        """Rewrite a lone WHERE 1=1 sentinel to WHERE TRUE."""
        def replace(match):
            rest = sql[match.end():].lstrip()
            if re.match(r"AND\b", rest, re.IGNORECASE):
                return match.group(0)
            return "WHERE TRUE"
        return re.sub(r"WHERE\s+1\s*=\s*1", replace, sql, flags=re.IGNORECASE)


def ensure_connection(conn):
    """Accept a raw connection or an open transaction handle uniformly."""
    if hasattr(conn, "cursor"):
        return conn
    raise TypeError("unsupported connection handle: %r" % (conn,))


_WILDCARD_PATTERN = re.compile(r"(?<!:):([A-Za-z_][A-Za-z0-9_]*)")


def convert_named_params(sql, params):
    """Convert :name wildcards to positional placeholders plus ordered args."""
    order = []
    occurrences = []

    def replace(match):
        name = match.group(1)
        if name not in order:
            order.append(name)
        occurrences.append(name)
        if _PLACEHOLDER_STYLE == "numbered":
            return "$%d" % (order.index(name) + 1)
        if _PLACEHOLDER_STYLE == "qmark":
            return "?"
        return "%s"

    converted = _WILDCARD_PATTERN.sub(replace, sql)
    needed = order if _PLACEHOLDER_STYLE == "numbered" else occurrences
    for name in needed:
        if name not in params:
            raise KeyError("missing value for parameter: %s" % name)
    return converted, [params[name] for name in needed]
`

// pythonInitTemplate is the manifest module re-exporting every generated
// function, grouped by originating file.
const pythonInitTemplate = `"""Generated by team-query. DO NOT EDIT."""
from . import utils
from .utils import Logger, configure_monitoring, set_log_level, set_logger
{{- range .Modules }}
from .{{ .Module }} import {{ join .Functions ", " }}
{{- end }}

__all__ = [
    "Logger",
    "configure_monitoring",
    "set_log_level",
    "set_logger",
{{- range .Modules }}
{{- range .Functions }}
    "{{ . }}",
{{- end }}
{{- end }}
]
`
