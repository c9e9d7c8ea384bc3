package pagesnap

// Page scripts evaluated through rod. Each is a function expression;
// rod passes Go arguments as JSON and awaits returned promises.
//
// State kept between calls lives on window under the __pagesnap prefix
// and is deleted by the matching release/unshift script.

const jsHasElement = `(id) => document.getElementById(id) !== null`

// jsWaitImages forces lazy images to load and resolves once each one has
// loaded and decoded, or failed. Web fonts are awaited too.
const jsWaitImages = `async (id) => {
  const root = document.getElementById(id);
  if (!root) return 0;
  const imgs = Array.from(root.querySelectorAll('img'));
  const settle = (img) => {
    const decode = () => (img.decode ? img.decode().catch(() => null) : null);
    if (img.complete) return decode();
    return new Promise((resolve) => {
      img.addEventListener('load', resolve, { once: true });
      img.addEventListener('error', resolve, { once: true });
    }).then(decode);
  };
  for (const img of imgs) {
    if (img.loading === 'lazy') img.loading = 'eager';
  }
  await Promise.all(imgs.map(settle));
  if (document.fonts && document.fonts.ready) await document.fonts.ready;
  return imgs.length;
}`

// jsSettle resolves true after two animation frames (layout and paint
// done), or false when the fallback delay wins.
const jsSettle = `(ms) => new Promise((resolve) => {
  let done = false;
  const finish = (v) => { if (!done) { done = true; resolve(v); } };
  requestAnimationFrame(() => requestAnimationFrame(() => finish(true)));
  setTimeout(() => finish(false), ms);
})`

const jsMeasure = `(id) => {
  const el = document.getElementById(id);
  if (!el) return null;
  const px = (v) => parseFloat(v) || 0;
  const r = el.getBoundingClientRect();
  const cs = getComputedStyle(el);
  let top = r.top;
  let bottom = r.bottom;
  for (let p = el.parentElement; p && p !== document.documentElement; p = p.parentElement) {
    const ps = getComputedStyle(p);
    if (ps.overflowY === 'visible' && ps.overflow === 'visible') continue;
    const pr = p.getBoundingClientRect();
    top = Math.max(top, pr.top);
    bottom = Math.min(bottom, pr.bottom);
  }
  const borderY = px(cs.borderTopWidth) + px(cs.borderBottomWidth);
  return {
    left: r.left + window.scrollX,
    top: r.top + window.scrollY,
    width: r.width,
    fullHeight: Math.max(el.scrollHeight + borderY, el.offsetHeight, r.height),
    visibleHeight: Math.max(0, bottom - top),
    paddingLeft: px(cs.paddingLeft),
    paddingRight: px(cs.paddingRight),
    marginLeft: px(cs.marginLeft),
    marginRight: px(cs.marginRight),
    borderLeft: px(cs.borderLeftWidth),
    borderRight: px(cs.borderRightWidth),
  };
}`

// jsCollectStyles snapshots the target subtree and its ancestors below
// <body>, keeping element references for jsApplyStyles.
const jsCollectStyles = `(id, props) => {
  const root = document.getElementById(id);
  if (!root) return null;
  const els = [];
  const walk = (el) => {
    els.push([el, false]);
    for (const c of el.children) walk(c);
  };
  walk(root);
  for (let p = root.parentElement; p && p !== document.body && p !== document.documentElement; p = p.parentElement) {
    els.push([p, true]);
  }
  window.__pagesnapRefs = els.map((e) => e[0]);
  return els.map(([el, ancestor], ref) => {
    const cs = getComputedStyle(el);
    const computed = {};
    const inline = {};
    for (const p of props) {
      computed[p] = cs.getPropertyValue(p);
      inline[p] = {
        value: el.style.getPropertyValue(p),
        important: el.style.getPropertyPriority(p) === 'important',
      };
    }
    return { ref, ancestor, tag: el.tagName.toLowerCase(), computed, inline };
  });
}`

const jsApplyStyles = `(patches) => {
  const refs = window.__pagesnapRefs || [];
  let applied = 0;
  for (const p of patches) {
    const el = refs[p.ref];
    if (!el) continue;
    for (const [prop, decl] of Object.entries(p.styles)) {
      if (decl.value === '') el.style.removeProperty(prop);
      else el.style.setProperty(prop, decl.value, decl.important ? 'important' : '');
    }
    applied++;
  }
  return applied;
}`

const jsReleaseStyles = `() => { delete window.__pagesnapRefs; return true; }`

// jsShift saves the inline transform on first use and translates the
// element up by offset pixels.
const jsShift = `(id, offset) => {
  const el = document.getElementById(id);
  if (!el) return false;
  if (!window.__pagesnapTransform) {
    window.__pagesnapTransform = {
      value: el.style.getPropertyValue('transform'),
      important: el.style.getPropertyPriority('transform') === 'important',
    };
  }
  el.style.setProperty('transform', 'translateY(' + (-offset) + 'px)', 'important');
  return true;
}`

const jsUnshift = `(id) => {
  const el = document.getElementById(id);
  const saved = window.__pagesnapTransform;
  delete window.__pagesnapTransform;
  if (!el || !saved) return false;
  if (saved.value === '') el.style.removeProperty('transform');
  else el.style.setProperty('transform', saved.value, saved.important ? 'important' : '');
  return true;
}`

// jsPrintDocument clones the target, lifts clipping on the clone using
// the original's computed styles, and wraps it with every readable
// stylesheet rule in a standalone document.
const jsPrintDocument = `(id, widthMM, heightMM) => {
  const el = document.getElementById(id);
  if (!el) return null;
  const clone = el.cloneNode(true);
  const clips = (v) => v === 'hidden' || v === 'auto' || v === 'scroll';
  const strip = (orig, copy) => {
    const cs = getComputedStyle(orig);
    let clipping = false;
    if (cs.maxHeight !== 'none') {
      copy.style.setProperty('max-height', 'none', 'important');
      clipping = true;
    }
    for (const p of ['overflow', 'overflow-x', 'overflow-y']) {
      if (clips(cs.getPropertyValue(p))) {
        copy.style.setProperty(p, 'visible', 'important');
        clipping = true;
      }
    }
    if (clipping) copy.style.setProperty('height', 'auto', 'important');
    for (let i = 0; i < orig.children.length && i < copy.children.length; i++) {
      strip(orig.children[i], copy.children[i]);
    }
  };
  strip(el, clone);
  const imports = [];
  const rules = [];
  for (const sheet of Array.from(document.styleSheets)) {
    try {
      for (const r of Array.from(sheet.cssRules)) rules.push(r.cssText);
    } catch (e) {
      if (sheet.href) imports.push('@import url("' + sheet.href + '");');
    }
  }
  const css = (imports.join('\n') + '\n' + rules.join('\n')).replace(/<\/style/gi, '<\\/style');
  const title = document.createElement('div');
  title.textContent = document.title || '';
  const base = document.createElement('div');
  base.textContent = document.baseURI;
  return '<!DOCTYPE html><html><head><meta charset="utf-8">' +
    '<base href="' + base.innerHTML.replace(/"/g, '&quot;') + '">' +
    '<title>' + title.innerHTML + '</title>' +
    '<style>' + css + '\n@page { size: ' + widthMM + 'mm ' + heightMM + 'mm; margin: 0; }' +
    '\nhtml, body { margin: 0; padding: 0; }</style>' +
    '</head><body>' + clone.outerHTML + '</body></html>';
}`
