package browser

// deepScanJS collects every element under a root, descending into open
// shadow roots. It is inlined into the page functions below.
const deepScanJS = `
	const deepScan = (root) => {
		const out = [];
		const walk = (r) => {
			const kids = r.querySelectorAll ? r.querySelectorAll('*') : [];
			for (const el of kids) {
				out.push(el);
				if (el.shadowRoot) walk(el.shadowRoot);
			}
		};
		walk(root);
		return out;
	};`

// controlHelpersJS decides whether a control may be clicked. It expects
// unsafeWords in scope. Anchors must stay on the current host and must not
// point at policy or terms pages.
const controlHelpersJS = `
	const visible = (el) => {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		return rect.width > 0 && rect.height > 0 &&
			style.display !== 'none' && style.visibility !== 'hidden' && style.opacity !== '0';
	};
	const safeAnchor = (el) => {
		if (el.tagName !== 'A') return true;
		try {
			const href = el.getAttribute('href') || '';
			const url = new URL(href, location.href);
			if (url.hostname !== location.hostname) return false;
			const text = (el.innerText || '').toLowerCase();
			return !unsafeWords.some(w => href.toLowerCase().includes(w) || text.includes(w));
		} catch (e) {
			return false;
		}
	};`

// clickByLabelJS clicks the first visible, safe element whose text equals or
// starts with the label, trying each selector in order, then falls back to
// aria-label and title attributes.
const clickByLabelJS = `(label, selectors, skipPhrases, unsafeWords) => {` + deepScanJS + controlHelpersJS + `
	const wanted = label.toLowerCase();
	const click = (el) => {
		el.dispatchEvent(new MouseEvent('click', { bubbles: true, cancelable: true, composed: true }));
		return true;
	};
	const all = deepScan(document);
	for (const sel of selectors) {
		for (const el of all) {
			if (!el.matches || !el.matches(sel)) continue;
			const text = (el.innerText || el.textContent || '').trim().toLowerCase();
			if (skipPhrases.some(p => text.includes(p))) continue;
			if (!visible(el) || !safeAnchor(el)) continue;
			if (text === wanted || text.startsWith(wanted)) return click(el);
		}
	}
	for (const el of all) {
		if (typeof el.getAttribute !== 'function' || !visible(el) || !safeAnchor(el)) continue;
		const aria = (el.getAttribute('aria-label') || '').toLowerCase();
		const title = (el.getAttribute('title') || '').toLowerCase();
		if (aria.includes(wanted) || title.includes(wanted)) return click(el);
	}
	return false;
}`

// bannerJS clicks the first visible, safe banner control whose text
// matches pattern, a whole-word label expression built by labelPattern.
const bannerJS = `(pattern, selector, skipPhrases, unsafeWords) => {` + controlHelpersJS + `
	const re = new RegExp(pattern);
	for (const el of document.querySelectorAll(selector)) {
		const text = (el.innerText || el.textContent || '').trim().toLowerCase();
		if (!re.test(text)) continue;
		if (skipPhrases.some(p => text.includes(p))) continue;
		if (!visible(el) || !safeAnchor(el)) continue;
		el.click();
		return true;
	}
	return false;
}`

// harvestJS reads candidate text from the document and each iframe. Every
// frame reports separately so unreadable frames surface as denied instead of
// aborting the read. CodeMirror lines are joined into one block and <style>
// elements are reported as fallback text.
const harvestJS = `(selectors) => {` + deepScanJS + `
	const gather = (doc) => {
		const items = [];
		for (const el of deepScan(doc)) {
			if (el.tagName === 'STYLE') {
				const css = (el.textContent || '').trim();
				if (css) items.push({ text: css, fallback: true });
				continue;
			}
			if (!el.matches || !selectors.some(sel => el.matches(sel))) continue;
			if (el.classList && el.classList.contains('cm-content')) {
				const lines = Array.from(el.querySelectorAll('.cm-line')).map(l => l.textContent || '');
				items.push({ text: lines.join('\n'), fallback: false });
				continue;
			}
			const text = ((el.value !== undefined ? el.value : el.textContent) || '').trim();
			if (text) items.push({ text: text, fallback: false });
		}
		return items;
	};
	const frames = [{ source: location.href, denied: false, items: gather(document) }];
	for (const frame of Array.from(document.querySelectorAll('iframe'))) {
		const source = frame.getAttribute('src') || '';
		try {
			const doc = frame.contentDocument || (frame.contentWindow && frame.contentWindow.document);
			if (!doc) {
				frames.push({ source: source, denied: true, items: [] });
				continue;
			}
			frames.push({ source: source, denied: false, items: gather(doc) });
		} catch (e) {
			frames.push({ source: source, denied: true, items: [] });
		}
	}
	return frames;
}`

const nextDataJS = `() => window.__NEXT_DATA__ ? JSON.stringify(window.__NEXT_DATA__) : ""`

const scrollToBottomJS = `() => window.scrollTo(0, document.body.scrollHeight)`
